// internal/models/template.go
package models

import (
	"fmt"

	"assessment-engine/internal/common/errors"
)

// DefaultGapThreshold is the material-difference threshold, in scale
// points, applied when a template does not configure its own.
const DefaultGapThreshold = 0.5

type QuestionType string

const (
	QuestionTypeRating         QuestionType = "rating"
	QuestionTypeText           QuestionType = "text"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeRanking        QuestionType = "ranking"
)

// Question carries a type discriminator and exactly one settings variant.
// Only rating questions feed the scorer; the other variants are carried
// through for comment roll-up and rendering.
type Question struct {
	ID   string       `json:"id"`
	Text string       `json:"text"`
	Type QuestionType `json:"type"`

	Rating         *RatingSettings         `json:"rating,omitempty"`
	MultipleChoice *MultipleChoiceSettings `json:"multipleChoice,omitempty"`
	Ranking        *RankingSettings        `json:"ranking,omitempty"`
}

type RatingSettings struct {
	ReverseScored bool `json:"reverseScored"`
	IsCCI         bool `json:"isCci"`
}

type MultipleChoiceSettings struct {
	Options []string `json:"options"`
}

type RankingSettings struct {
	Items []string `json:"items"`
}

// IsRating reports whether the question contributes numeric scores.
func (q Question) IsRating() bool {
	return q.Type == QuestionTypeRating && q.Rating != nil
}

// IsReverseScored reports whether the raw rating must be inverted.
func (q Question) IsReverseScored() bool {
	return q.IsRating() && q.Rating.ReverseScored
}

// IsCCI reports whether the question feeds the coaching capacity index.
func (q Question) IsCCI() bool {
	return q.IsRating() && q.Rating.IsCCI
}

type Competency struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	DisplayOrder int        `json:"displayOrder"`
	Questions    []Question `json:"questions"`
}

// Template is an immutable-once-published assessment definition. New
// versions are new rows linked through ParentTemplateID; a published
// template is never edited in place.
type Template struct {
	ID               string  `json:"id"`
	AgencyID         string  `json:"agencyId"`
	ParentTemplateID *string `json:"parentTemplateId,omitempty"`
	Name             string  `json:"name"`
	Version          int     `json:"version"`
	Published        bool    `json:"published"`

	ScaleMin    int               `json:"scaleMin"`
	ScaleMax    int               `json:"scaleMax"`
	ScaleLabels map[string]string `json:"scaleLabels,omitempty"`

	RaterTypes       []RaterType       `json:"raterTypes"`
	MinRatersPerType map[RaterType]int `json:"minRatersPerType,omitempty"`
	MaxRatersPerType map[RaterType]int `json:"maxRatersPerType,omitempty"`

	// GapThreshold overrides DefaultGapThreshold when > 0.
	GapThreshold float64 `json:"gapThreshold,omitempty"`

	Competencies []Competency `json:"competencies"`
}

// EffectiveGapThreshold returns the material-difference threshold for gap
// classification and trend direction.
func (t *Template) EffectiveGapThreshold() float64 {
	if t.GapThreshold > 0 {
		return t.GapThreshold
	}
	return DefaultGapThreshold
}

// ScaleMidpoint returns the midpoint used by the Johari high/low split.
func (t *Template) ScaleMidpoint() float64 {
	return float64(t.ScaleMin+t.ScaleMax) / 2.0
}

// PermitsRaterType reports whether the rater type is in the template's
// permitted set.
func (t *Template) PermitsRaterType(r RaterType) bool {
	for _, rt := range t.RaterTypes {
		if rt == r {
			return true
		}
	}
	return false
}

// Question returns the question with the given ID within the competency,
// or false when either is unknown.
func (t *Template) Question(competencyID, questionID string) (Question, bool) {
	for _, c := range t.Competencies {
		if c.ID != competencyID {
			continue
		}
		for _, q := range c.Questions {
			if q.ID == questionID {
				return q, true
			}
		}
	}
	return Question{}, false
}

// Validate checks the structural invariants of a template configuration.
// Violations surface as INVALID_TEMPLATE_CONFIGURATION and abort scoring.
func (t *Template) Validate() error {
	if t.ScaleMax <= t.ScaleMin {
		return errors.NewInvalidTemplateConfigError(
			fmt.Sprintf("scaleMax (%d) must be greater than scaleMin (%d)", t.ScaleMax, t.ScaleMin))
	}
	if len(t.RaterTypes) == 0 {
		return errors.NewInvalidTemplateConfigError("template permits no rater types")
	}
	for _, rt := range t.RaterTypes {
		if !rt.IsKnown() {
			return errors.NewInvalidTemplateConfigError(fmt.Sprintf("unknown rater type %q", rt))
		}
	}
	if len(t.Competencies) == 0 {
		return errors.NewInvalidTemplateConfigError("template has no competencies")
	}

	seenCompetency := map[string]bool{}
	for _, c := range t.Competencies {
		if seenCompetency[c.ID] {
			return errors.NewInvalidTemplateConfigError(fmt.Sprintf("duplicate competency id %q", c.ID))
		}
		seenCompetency[c.ID] = true

		if len(c.Questions) == 0 {
			return errors.NewInvalidTemplateConfigError(fmt.Sprintf("competency %q has no questions", c.ID))
		}

		cciCount := 0
		seenQuestion := map[string]bool{}
		for _, q := range c.Questions {
			if seenQuestion[q.ID] {
				return errors.NewInvalidTemplateConfigError(
					fmt.Sprintf("duplicate question id %q in competency %q", q.ID, c.ID))
			}
			seenQuestion[q.ID] = true

			if err := validateQuestionVariant(c.ID, q); err != nil {
				return err
			}
			if q.IsCCI() {
				cciCount++
			}
		}
		if cciCount > 1 {
			return errors.NewInvalidTemplateConfigError(
				fmt.Sprintf("competency %q has %d CCI items, at most one is allowed", c.ID, cciCount))
		}
	}
	return nil
}

func validateQuestionVariant(competencyID string, q Question) error {
	mismatch := func(want string) error {
		return errors.NewInvalidTemplateConfigError(
			fmt.Sprintf("question %q in competency %q has type %q but no %s settings", q.ID, competencyID, q.Type, want))
	}
	switch q.Type {
	case QuestionTypeRating:
		if q.Rating == nil {
			return mismatch("rating")
		}
	case QuestionTypeMultipleChoice:
		if q.MultipleChoice == nil {
			return mismatch("multipleChoice")
		}
	case QuestionTypeRanking:
		if q.Ranking == nil {
			return mismatch("ranking")
		}
	case QuestionTypeText:
		// no settings variant
	default:
		return errors.NewInvalidTemplateConfigError(
			fmt.Sprintf("question %q in competency %q has unknown type %q", q.ID, competencyID, q.Type))
	}
	return nil
}
