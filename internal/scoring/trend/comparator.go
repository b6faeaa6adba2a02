// internal/scoring/trend/comparator.go
package trend

import (
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

type Comparator struct {
	// threshold is the same material-difference cutoff the gap analyzer
	// uses, so a change counts as improvement exactly when a gap of the
	// same size would count as material.
	threshold float64
	logger    logger.Logger
}

func New(threshold float64, log logger.Logger) *Comparator {
	if threshold <= 0 {
		threshold = models.DefaultGapThreshold
	}
	return &Comparator{
		threshold: threshold,
		logger:    log.WithFields(map[string]interface{}{"component": "trend"}),
	}
}

// Compare measures per-competency change between the current scores and
// the prior completed snapshot of the same subject and template lineage.
// Returns nil when there is no prior snapshot: a trend is omitted, never
// fabricated as zero change. Comparison uses others' averages; a
// competency missing from either side is skipped.
func (c *Comparator) Compare(previousAssessmentID string, previous *models.ComputedAssessmentResults, current []models.CompetencyScore) *models.TrendComparison {
	if previous == nil {
		return nil
	}

	prevByID := make(map[string]*models.CompetencyScore, len(previous.CompetencyScores))
	for i := range previous.CompetencyScores {
		prevByID[previous.CompetencyScores[i].CompetencyID] = &previous.CompetencyScores[i]
	}

	cmp := &models.TrendComparison{
		PreviousAssessmentID: previousAssessmentID,
		PreviousComputedAt:   previous.ComputedAt,
	}

	var changeSum float64
	for _, cur := range current {
		if cur.OthersAverage == nil {
			continue
		}
		prev, ok := prevByID[cur.CompetencyID]
		if !ok || prev.OthersAverage == nil {
			continue
		}

		prevScore := *prev.OthersAverage
		curScore := *cur.OthersAverage
		change := curScore - prevScore

		entry := models.CompetencyTrend{
			CompetencyID: cur.CompetencyID,
			Previous:     prevScore,
			Current:      curScore,
			Change:       change,
			Direction:    c.direction(change),
		}
		if prevScore != 0 {
			pct := change / prevScore * 100.0
			entry.ChangePercent = &pct
		}

		cmp.Competencies = append(cmp.Competencies, entry)
		changeSum += change
	}

	if len(cmp.Competencies) == 0 {
		return nil
	}

	// Overall change is the mean of per-competency changes, not a
	// recomputation of a weighted score of scores.
	cmp.OverallChange = changeSum / float64(len(cmp.Competencies))
	cmp.OverallDirection = c.direction(cmp.OverallChange)

	return cmp
}

func (c *Comparator) direction(change float64) models.TrendDirection {
	switch {
	case change >= c.threshold:
		return models.TrendImproved
	case change <= -c.threshold:
		return models.TrendDeclined
	default:
		return models.TrendStable
	}
}
