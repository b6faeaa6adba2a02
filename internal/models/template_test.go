// internal/models/template_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-engine/internal/common/errors"
)

// ==========================
// Test Helpers
// ==========================

func validTemplate() *Template {
	return &Template{
		ID:         "tmpl-1",
		AgencyID:   "agency-1",
		Name:       "Leadership 360",
		Version:    1,
		Published:  true,
		ScaleMin:   1,
		ScaleMax:   5,
		RaterTypes: []RaterType{RaterTypeSelf, RaterTypeManager, RaterTypePeer},
		Competencies: []Competency{
			{ID: "c1", Name: "Communication", DisplayOrder: 0, Questions: []Question{
				{ID: "q1", Text: "Listens actively", Type: QuestionTypeRating, Rating: &RatingSettings{IsCCI: true}},
				{ID: "q2", Text: "Interrupts others", Type: QuestionTypeRating, Rating: &RatingSettings{ReverseScored: true}},
				{ID: "q3", Text: "Anything else?", Type: QuestionTypeText},
			}},
			{ID: "c2", Name: "Delegation", DisplayOrder: 1, Questions: []Question{
				{ID: "q4", Text: "Delegates effectively", Type: QuestionTypeRating, Rating: &RatingSettings{}},
			}},
		},
	}
}

// ==========================
// Validate Tests
// ==========================

func TestTemplate_Validate(t *testing.T) {
	assert.NoError(t, validTemplate().Validate())
}

func TestTemplate_Validate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Template)
	}{
		{
			name:   "scale max equals min",
			mutate: func(tmpl *Template) { tmpl.ScaleMax = tmpl.ScaleMin },
		},
		{
			name:   "scale max below min",
			mutate: func(tmpl *Template) { tmpl.ScaleMin = 5; tmpl.ScaleMax = 1 },
		},
		{
			name:   "no rater types",
			mutate: func(tmpl *Template) { tmpl.RaterTypes = nil },
		},
		{
			name:   "unknown rater type",
			mutate: func(tmpl *Template) { tmpl.RaterTypes = append(tmpl.RaterTypes, "board_member") },
		},
		{
			name:   "anonymous is not a rater type",
			mutate: func(tmpl *Template) { tmpl.RaterTypes = append(tmpl.RaterTypes, RaterTypeAnonymous) },
		},
		{
			name:   "no competencies",
			mutate: func(tmpl *Template) { tmpl.Competencies = nil },
		},
		{
			name: "duplicate competency id",
			mutate: func(tmpl *Template) {
				tmpl.Competencies = append(tmpl.Competencies, Competency{
					ID: "c1", Name: "Duplicate", Questions: tmpl.Competencies[0].Questions,
				})
			},
		},
		{
			name: "competency without questions",
			mutate: func(tmpl *Template) {
				tmpl.Competencies = append(tmpl.Competencies, Competency{ID: "c3", Name: "Empty"})
			},
		},
		{
			name: "duplicate question id within competency",
			mutate: func(tmpl *Template) {
				c := &tmpl.Competencies[0]
				c.Questions = append(c.Questions, Question{
					ID: "q1", Text: "Copy", Type: QuestionTypeRating, Rating: &RatingSettings{},
				})
			},
		},
		{
			name: "rating question without rating settings",
			mutate: func(tmpl *Template) {
				tmpl.Competencies[0].Questions[0].Rating = nil
			},
		},
		{
			name: "multiple choice question without options variant",
			mutate: func(tmpl *Template) {
				c := &tmpl.Competencies[1]
				c.Questions = append(c.Questions, Question{ID: "q5", Text: "Pick one", Type: QuestionTypeMultipleChoice})
			},
		},
		{
			name: "unknown question type",
			mutate: func(tmpl *Template) {
				tmpl.Competencies[0].Questions[2].Type = "freeform"
			},
		},
		{
			name: "two CCI items in one competency",
			mutate: func(tmpl *Template) {
				tmpl.Competencies[0].Questions[1].Rating.IsCCI = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := validTemplate()
			tt.mutate(tmpl)

			err := tmpl.Validate()
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTemplateConfig))
		})
	}
}

func TestTemplate_Validate_AllowsOneCCIPerCompetency(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Competencies[1].Questions[0].Rating.IsCCI = true // second competency gets its own

	assert.NoError(t, tmpl.Validate())
}

// ==========================
// Helper Tests
// ==========================

func TestTemplate_EffectiveGapThreshold(t *testing.T) {
	tmpl := validTemplate()
	assert.Equal(t, DefaultGapThreshold, tmpl.EffectiveGapThreshold())

	tmpl.GapThreshold = 0.75
	assert.Equal(t, 0.75, tmpl.EffectiveGapThreshold())
}

func TestTemplate_ScaleMidpoint(t *testing.T) {
	tests := []struct {
		min, max int
		want     float64
	}{
		{1, 5, 3.0},
		{1, 7, 4.0},
		{0, 10, 5.0},
		{1, 4, 2.5},
	}

	for _, tt := range tests {
		tmpl := &Template{ScaleMin: tt.min, ScaleMax: tt.max}
		assert.Equal(t, tt.want, tmpl.ScaleMidpoint())
	}
}

func TestTemplate_PermitsRaterType(t *testing.T) {
	tmpl := validTemplate()

	assert.True(t, tmpl.PermitsRaterType(RaterTypePeer))
	assert.False(t, tmpl.PermitsRaterType(RaterTypeDirectReport))
}

func TestTemplate_Question(t *testing.T) {
	tmpl := validTemplate()

	q, ok := tmpl.Question("c1", "q2")
	require.True(t, ok)
	assert.True(t, q.IsReverseScored())

	_, ok = tmpl.Question("c1", "q4")
	assert.False(t, ok, "question lookup is scoped to its competency")

	_, ok = tmpl.Question("missing", "q1")
	assert.False(t, ok)
}
