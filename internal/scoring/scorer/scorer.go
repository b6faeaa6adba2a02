// internal/scoring/scorer/scorer.go
package scorer

import (
	"fmt"
	"math"

	"assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

type Scorer struct {
	logger logger.Logger
}

func New(log logger.Logger) *Scorer {
	return &Scorer{
		logger: log.WithFields(map[string]interface{}{"component": "scorer"}),
	}
}

// Score reduces completed responses into per-item and per-competency
// aggregates. It is deterministic for a fixed input set: iteration always
// follows template competency and question order, and it never divides by
// zero — rater types without respondents are omitted from the score maps.
func (s *Scorer) Score(input *Input) (*Output, error) {
	tmpl := input.Template

	for _, resp := range input.Responses {
		if !tmpl.PermitsRaterType(resp.RaterType) {
			return nil, errors.NewInvalidTemplateConfigError(
				fmt.Sprintf("response from invitation %s carries rater type %q not permitted by template %s",
					resp.InvitationID, resp.RaterType, tmpl.ID))
		}
	}

	ratings := collectRatings(tmpl, input.Responses)

	out := &Output{}
	var overallSum float64
	var overallN int

	for _, comp := range tmpl.Competencies {
		itemScores := s.scoreItems(tmpl, comp, ratings)
		out.ItemScores = append(out.ItemScores, itemScores...)

		compScore := s.scoreCompetency(comp, itemScores, ratings)
		out.CompetencyScores = append(out.CompetencyScores, compScore)

		if compScore.OthersAverage != nil {
			overallSum += *compScore.OthersAverage
			overallN++
		}
	}

	if overallN > 0 {
		out.OverallScore = overallSum / float64(overallN)
	}

	out.ResponseRates = responseRates(tmpl, input.Invitations)

	s.logger.Debug("scoring pass reduced responses", map[string]interface{}{
		"templateId":   tmpl.ID,
		"responses":    len(input.Responses),
		"competencies": len(out.CompetencyScores),
	})

	return out, nil
}

// ratingKey addresses one question's ratings.
type ratingKey struct {
	competencyID string
	questionID   string
}

// questionRatings holds per-rater effective values plus raw values for the
// response distribution.
type questionRatings struct {
	// byRater preserves one slice per responding invitation so rater-level
	// competency averages can be rebuilt for the agreement statistic.
	byRater map[string]raterRatings
	order   []string // invitation IDs in first-seen order
}

type raterRatings struct {
	raterType models.RaterType
	effective float64
	raw       float64
}

func collectRatings(tmpl *models.Template, responses []models.RatedResponse) map[ratingKey]*questionRatings {
	ratings := make(map[ratingKey]*questionRatings)

	for _, resp := range responses {
		for _, item := range resp.Items {
			if item.Rating == nil {
				continue
			}
			q, ok := tmpl.Question(item.CompetencyID, item.QuestionID)
			if !ok || !q.IsRating() {
				continue
			}

			key := ratingKey{item.CompetencyID, item.QuestionID}
			qr := ratings[key]
			if qr == nil {
				qr = &questionRatings{byRater: make(map[string]raterRatings)}
				ratings[key] = qr
			}

			raw := *item.Rating
			effective := raw
			if q.IsReverseScored() {
				effective = float64(tmpl.ScaleMax+tmpl.ScaleMin) - raw
			}
			if _, seen := qr.byRater[resp.InvitationID]; !seen {
				qr.order = append(qr.order, resp.InvitationID)
			}
			qr.byRater[resp.InvitationID] = raterRatings{
				raterType: resp.RaterType,
				effective: effective,
				raw:       raw,
			}
		}
	}

	return ratings
}

func (s *Scorer) scoreItems(tmpl *models.Template, comp models.Competency, ratings map[ratingKey]*questionRatings) []models.ItemScore {
	var out []models.ItemScore

	for qIdx, q := range comp.Questions {
		if !q.IsRating() {
			continue
		}
		qr := ratings[ratingKey{comp.ID, q.ID}]

		item := models.ItemScore{
			CompetencyID:  comp.ID,
			QuestionID:    q.ID,
			QuestionText:  q.Text,
			QuestionOrder: qIdx,
			Scores:        make(map[models.RaterType]float64),
		}

		if qr != nil {
			sums := make(map[models.RaterType]float64)
			counts := make(map[models.RaterType]int)
			var othersSum float64
			var othersN int

			for _, invID := range qr.order {
				r := qr.byRater[invID]
				sums[r.raterType] += r.effective
				counts[r.raterType]++
				if !r.raterType.IsSelf() {
					othersSum += r.effective
					othersN++
				}
			}

			for rt, n := range counts {
				item.Scores[rt] = sums[rt] / float64(n)
			}
			if selfAvg, ok := item.Scores[models.RaterTypeSelf]; ok {
				v := selfAvg
				item.SelfScore = &v
			}
			if othersN > 0 {
				v := othersSum / float64(othersN)
				item.OthersAverage = &v
			}
		}

		out = append(out, item)
	}

	return out
}

func (s *Scorer) scoreCompetency(comp models.Competency, items []models.ItemScore, ratings map[ratingKey]*questionRatings) models.CompetencyScore {
	score := models.CompetencyScore{
		CompetencyID: comp.ID,
		Name:         comp.Name,
		DisplayOrder: comp.DisplayOrder,
		Scores:       make(map[models.RaterType]float64),
	}

	// Roll item averages up by simple mean: each question weighs equally.
	typeSums := make(map[models.RaterType]float64)
	typeCounts := make(map[models.RaterType]int)
	var othersSum float64
	var othersN int

	for _, item := range items {
		for rt, avg := range item.Scores {
			typeSums[rt] += avg
			typeCounts[rt]++
		}
		if item.OthersAverage != nil {
			othersSum += *item.OthersAverage
			othersN++
		}
	}

	for rt, n := range typeCounts {
		score.Scores[rt] = typeSums[rt] / float64(n)
	}
	if selfAvg, ok := score.Scores[models.RaterTypeSelf]; ok {
		v := selfAvg
		score.SelfScore = &v
	}
	if othersN > 0 {
		v := othersSum / float64(othersN)
		score.OthersAverage = &v
	}

	score.ResponseDistribution = distribution(comp, ratings)
	score.RaterAgreement = raterAgreement(comp, ratings)

	return score
}

// distribution counts raw rating values across all raters and questions of
// the competency.
func distribution(comp models.Competency, ratings map[ratingKey]*questionRatings) map[int]int {
	dist := make(map[int]int)
	for _, q := range comp.Questions {
		qr := ratings[ratingKey{comp.ID, q.ID}]
		if qr == nil {
			continue
		}
		for _, invID := range qr.order {
			dist[int(math.Round(qr.byRater[invID].raw))]++
		}
	}
	if len(dist) == 0 {
		return nil
	}
	return dist
}

// raterAgreement is the population standard deviation of per-rater
// competency averages among non-self raters. A high value means the
// raters disagree, which is surfaced rather than hidden. Nil with fewer
// than two non-self raters.
func raterAgreement(comp models.Competency, ratings map[ratingKey]*questionRatings) *float64 {
	perRaterSum := make(map[string]float64)
	perRaterN := make(map[string]int)
	var order []string

	for _, q := range comp.Questions {
		qr := ratings[ratingKey{comp.ID, q.ID}]
		if qr == nil {
			continue
		}
		for _, invID := range qr.order {
			r := qr.byRater[invID]
			if r.raterType.IsSelf() {
				continue
			}
			if _, seen := perRaterN[invID]; !seen {
				order = append(order, invID)
			}
			perRaterSum[invID] += r.effective
			perRaterN[invID]++
		}
	}

	if len(order) < 2 {
		return nil
	}

	averages := make([]float64, 0, len(order))
	var mean float64
	for _, invID := range order {
		avg := perRaterSum[invID] / float64(perRaterN[invID])
		averages = append(averages, avg)
		mean += avg
	}
	mean /= float64(len(averages))

	var variance float64
	for _, avg := range averages {
		d := avg - mean
		variance += d * d
	}
	variance /= float64(len(averages))

	sd := math.Sqrt(variance)
	return &sd
}

// responseRates builds the per-rater-type completion table in template
// rater-type order. Under-response is reported, never used to suppress
// scores.
func responseRates(tmpl *models.Template, invitations []models.Invitation) []models.ResponseRate {
	rates := make([]models.ResponseRate, 0, len(tmpl.RaterTypes))

	for _, rt := range tmpl.RaterTypes {
		rate := models.ResponseRate{RaterType: rt}
		for _, inv := range invitations {
			if inv.RaterType != rt {
				continue
			}
			rate.Invited++
			if inv.Status == models.InvitationStatusCompleted {
				rate.Completed++
			}
		}
		if rate.Invited > 0 {
			rate.Rate = float64(rate.Completed) / float64(rate.Invited)
		}
		if min, ok := tmpl.MinRatersPerType[rt]; ok && rate.Completed < min {
			rate.UnderMin = true
		}
		rates = append(rates, rate)
	}

	return rates
}
