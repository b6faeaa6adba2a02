// internal/scoring/gap/analyzer.go
package gap

import (
	"sort"

	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

// Output carries the self/other comparison artifacts of one assessment.
type Output struct {
	Gaps        []models.GapEntry
	Johari      models.JohariWindow
	TopItems    []models.RankedItem
	BottomItems []models.RankedItem
}

type Analyzer struct {
	config Config
	logger logger.Logger
}

func New(config Config, log logger.Logger) *Analyzer {
	if config.Threshold <= 0 {
		config.Threshold = DefaultConfig().Threshold
	}
	if config.RankingSize <= 0 {
		config.RankingSize = DefaultConfig().RankingSize
	}
	return &Analyzer{
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "gap-analyzer"}),
	}
}

// Analyze classifies self/other gaps and buckets competencies into the
// Johari window. Competencies missing either a self score or an others'
// average are skipped entirely: a gap is never fabricated from one side.
//
// Quadrant mapping: the gap label blind_spot (self rates materially higher
// than others) pairs with the hiddenArea quadrant, a weakness unknown to
// the subject; the blindSpot quadrant holds strengths others see that the
// subject under-rates, pairing with hidden_strength. High/low is split at
// the scale midpoint, not at the cohort average, with the midpoint itself
// counting as high.
func (a *Analyzer) Analyze(tmpl *models.Template, scores []models.CompetencyScore, items []models.ItemScore) *Output {
	out := &Output{
		Johari: models.JohariWindow{
			OpenArea:    []string{},
			BlindSpot:   []string{},
			HiddenArea:  []string{},
			UnknownArea: []string{},
		},
	}
	midpoint := tmpl.ScaleMidpoint()

	for _, cs := range scores {
		if cs.SelfScore == nil || cs.OthersAverage == nil {
			continue
		}
		self := *cs.SelfScore
		others := *cs.OthersAverage

		out.Gaps = append(out.Gaps, models.GapEntry{
			CompetencyID:   cs.CompetencyID,
			SelfScore:      self,
			OthersAverage:  others,
			Gap:            self - others,
			Classification: a.classify(self - others),
		})

		selfHigh := self >= midpoint
		othersHigh := others >= midpoint
		switch {
		case selfHigh && othersHigh:
			out.Johari.OpenArea = append(out.Johari.OpenArea, cs.CompetencyID)
		case othersHigh && !selfHigh:
			out.Johari.BlindSpot = append(out.Johari.BlindSpot, cs.CompetencyID)
		case selfHigh && !othersHigh:
			out.Johari.HiddenArea = append(out.Johari.HiddenArea, cs.CompetencyID)
		default:
			out.Johari.UnknownArea = append(out.Johari.UnknownArea, cs.CompetencyID)
		}
	}

	out.TopItems, out.BottomItems = a.rankItems(tmpl, items)

	return out
}

func (a *Analyzer) classify(gap float64) models.GapClassification {
	switch {
	case gap >= a.config.Threshold:
		return models.GapBlindSpot
	case gap <= -a.config.Threshold:
		return models.GapHiddenStrength
	default:
		return models.GapAligned
	}
}

// rankItems orders item others' averages descending. Items without a
// single non-self rating are excluded. Ties break by competency display
// order, then question order, so rankings are reproducible.
func (a *Analyzer) rankItems(tmpl *models.Template, items []models.ItemScore) (top, bottom []models.RankedItem) {
	displayOrder := make(map[string]int, len(tmpl.Competencies))
	for _, c := range tmpl.Competencies {
		displayOrder[c.ID] = c.DisplayOrder
	}

	scored := make([]models.ItemScore, 0, len(items))
	for _, item := range items {
		if item.OthersAverage != nil {
			scored = append(scored, item)
		}
	}

	byOrder := func(i, j int) bool {
		if displayOrder[scored[i].CompetencyID] != displayOrder[scored[j].CompetencyID] {
			return displayOrder[scored[i].CompetencyID] < displayOrder[scored[j].CompetencyID]
		}
		return scored[i].QuestionOrder < scored[j].QuestionOrder
	}

	sort.SliceStable(scored, func(i, j int) bool {
		si, sj := *scored[i].OthersAverage, *scored[j].OthersAverage
		if si != sj {
			return si > sj
		}
		return byOrder(i, j)
	})

	n := a.config.RankingSize
	if n > len(scored) {
		n = len(scored)
	}

	top = rankedSlice(scored[:n])

	// Bottom list: lowest scores first, same deterministic tie-break.
	sort.SliceStable(scored, func(i, j int) bool {
		si, sj := *scored[i].OthersAverage, *scored[j].OthersAverage
		if si != sj {
			return si < sj
		}
		return byOrder(i, j)
	})
	bottom = rankedSlice(scored[:n])

	return top, bottom
}

func rankedSlice(items []models.ItemScore) []models.RankedItem {
	out := make([]models.RankedItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.RankedItem{
			CompetencyID: item.CompetencyID,
			QuestionID:   item.QuestionID,
			QuestionText: item.QuestionText,
			Score:        *item.OthersAverage,
		})
	}
	return out
}
