// internal/scoring/cci/calculator.go
package cci

import (
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

// Band cutoffs as fractions of the normalized 0-100 score, so the same
// relative responses land in the same band regardless of the template's
// rating scale.
const (
	cutoffModerate = 25.0
	cutoffHigh     = 50.0
	cutoffVeryHigh = 75.0
)

type Calculator struct {
	logger logger.Logger
}

func New(log logger.Logger) *Calculator {
	return &Calculator{
		logger: log.WithFields(map[string]interface{}{"component": "cci"}),
	}
}

// Calculate derives the coaching capacity index from the template's CCI
// items: each item's non-self average (already post reverse-scoring in the
// item scores) is averaged across items, then normalized to 0-100 against
// the scale bounds. Returns nil when the template has no CCI items or none
// of them received a non-self rating; a zero score is never fabricated.
func (c *Calculator) Calculate(tmpl *models.Template, items []models.ItemScore) *models.CCIResult {
	cciItems := make(map[string]bool)
	for _, comp := range tmpl.Competencies {
		for _, q := range comp.Questions {
			if q.IsCCI() {
				cciItems[comp.ID+"/"+q.ID] = true
			}
		}
	}
	if len(cciItems) == 0 {
		return nil
	}

	var sum float64
	var n int
	for _, item := range items {
		if !cciItems[item.CompetencyID+"/"+item.QuestionID] {
			continue
		}
		if item.OthersAverage == nil {
			continue
		}
		sum += *item.OthersAverage
		n++
	}
	if n == 0 {
		return nil
	}

	avg := sum / float64(n)
	span := float64(tmpl.ScaleMax - tmpl.ScaleMin)
	normalized := (avg - float64(tmpl.ScaleMin)) / span * 100.0

	result := &models.CCIResult{
		Score:     normalized,
		Band:      band(normalized),
		ItemCount: n,
	}

	c.logger.Debug("cci computed", map[string]interface{}{
		"score":     result.Score,
		"band":      result.Band,
		"itemCount": result.ItemCount,
	})

	return result
}

func band(score float64) models.CCIBand {
	switch {
	case score < cutoffModerate:
		return models.CCIBandLow
	case score < cutoffHigh:
		return models.CCIBandModerate
	case score < cutoffVeryHigh:
		return models.CCIBandHigh
	default:
		return models.CCIBandVeryHigh
	}
}
