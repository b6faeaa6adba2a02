// internal/scoring/scorer/models.go
package scorer

import "assessment-engine/internal/models"

// Input is the immutable data set one scoring pass reduces: the template,
// the assessment's invitations, and its completed responses tagged with
// rater type.
type Input struct {
	Template    *models.Template
	Invitations []models.Invitation
	Responses   []models.RatedResponse
}

// Output is the scored aggregate consumed by the gap analyzer, the CCI
// calculator, the trend comparator and the assembler.
type Output struct {
	CompetencyScores []models.CompetencyScore
	ItemScores       []models.ItemScore
	ResponseRates    []models.ResponseRate

	// OverallScore is the mean of per-competency others' averages; zero
	// when no competency has a non-self respondent.
	OverallScore float64
}
