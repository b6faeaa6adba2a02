// internal/scoring/assembler/comments.go
package assembler

import (
	"assessment-engine/internal/models"
)

// rollUpComments groups free-text answers and per-item comments by
// competency and question, in template order. When the assessment is
// anonymized, a rater type is named only if at least two raters of that
// type completed the assessment; below that the attribution folds into
// "anonymous" so a single peer or direct report cannot be identified by
// their label.
func rollUpComments(tmpl *models.Template, anonymized bool, invitations []models.Invitation, responses []models.RatedResponse) []models.CommentGroup {
	completedByType := make(map[models.RaterType]int)
	for _, inv := range invitations {
		if inv.Status == models.InvitationStatusCompleted {
			completedByType[inv.RaterType]++
		}
	}

	attribution := func(rt models.RaterType) models.RaterType {
		if anonymized && completedByType[rt] < 2 {
			return models.RaterTypeAnonymous
		}
		return rt
	}

	type groupKey struct {
		competencyID string
		questionID   string
	}
	grouped := make(map[groupKey][]models.CommentEntry)

	for _, resp := range responses {
		for _, item := range resp.Items {
			key := groupKey{item.CompetencyID, item.QuestionID}
			if item.Text != "" {
				grouped[key] = append(grouped[key], models.CommentEntry{
					RaterType: attribution(resp.RaterType),
					Text:      item.Text,
				})
			}
			if item.Comment != "" {
				grouped[key] = append(grouped[key], models.CommentEntry{
					RaterType: attribution(resp.RaterType),
					Text:      item.Comment,
				})
			}
		}
	}

	var out []models.CommentGroup
	for _, comp := range tmpl.Competencies {
		for _, q := range comp.Questions {
			entries := grouped[groupKey{comp.ID, q.ID}]
			if len(entries) == 0 {
				continue
			}
			out = append(out, models.CommentGroup{
				CompetencyID: comp.ID,
				QuestionID:   q.ID,
				QuestionText: q.Text,
				Comments:     entries,
			})
		}
	}
	return out
}
