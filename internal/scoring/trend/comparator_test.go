// internal/scoring/trend/comparator_test.go
package trend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func val(v float64) *float64 {
	return &v
}

func snapshot(computedAt time.Time, scores ...models.CompetencyScore) *models.ComputedAssessmentResults {
	return &models.ComputedAssessmentResults{
		SnapshotID:       "snap-prev",
		ComputedAt:       computedAt,
		CompetencyScores: scores,
	}
}

func currentScore(id string, others *float64) models.CompetencyScore {
	return models.CompetencyScore{CompetencyID: id, OthersAverage: others}
}

// ==========================
// Comparison Tests
// ==========================

func TestComparator_Compare_NoPrior(t *testing.T) {
	c := New(0.5, logger.NewNoOpLogger())
	result := c.Compare("", nil, []models.CompetencyScore{currentScore("c1", val(4.0))})
	assert.Nil(t, result, "trend is omitted when no prior exists, never zero change")
}

func TestComparator_Compare_NoSharedCompetencies(t *testing.T) {
	c := New(0.5, logger.NewNoOpLogger())
	prev := snapshot(time.Now(), currentScore("old-competency", val(3.0)))

	result := c.Compare("prev-1", prev, []models.CompetencyScore{currentScore("c1", val(4.0))})
	assert.Nil(t, result)
}

func TestComparator_Compare_Directions(t *testing.T) {
	tests := []struct {
		name     string
		previous float64
		current  float64
		expected models.TrendDirection
	}{
		{"improved at threshold", 3.0, 3.5, models.TrendImproved},
		{"improved well above", 2.0, 4.0, models.TrendImproved},
		{"declined at threshold", 3.5, 3.0, models.TrendDeclined},
		{"stable below threshold", 3.0, 3.25, models.TrendStable},
		{"stable no change", 3.0, 3.0, models.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(0.5, logger.NewNoOpLogger())
			prev := snapshot(time.Now(), currentScore("c1", val(tt.previous)))

			result := c.Compare("prev-1", prev, []models.CompetencyScore{currentScore("c1", val(tt.current))})

			require.NotNil(t, result)
			require.Len(t, result.Competencies, 1)
			entry := result.Competencies[0]
			assert.Equal(t, tt.expected, entry.Direction)
			assert.InDelta(t, tt.current-tt.previous, entry.Change, 1e-9)
		})
	}
}

func TestComparator_Compare_ChangePercent(t *testing.T) {
	c := New(0.5, logger.NewNoOpLogger())
	prev := snapshot(time.Now(), currentScore("c1", val(4.0)))

	result := c.Compare("prev-1", prev, []models.CompetencyScore{currentScore("c1", val(5.0))})

	require.NotNil(t, result)
	require.NotNil(t, result.Competencies[0].ChangePercent)
	assert.InDelta(t, 25.0, *result.Competencies[0].ChangePercent, 1e-9)
}

func TestComparator_Compare_ChangePercentNilWhenPreviousZero(t *testing.T) {
	c := New(0.5, logger.NewNoOpLogger())
	prev := snapshot(time.Now(), currentScore("c1", val(0.0)))

	result := c.Compare("prev-1", prev, []models.CompetencyScore{currentScore("c1", val(2.0))})

	require.NotNil(t, result)
	assert.Nil(t, result.Competencies[0].ChangePercent)
	assert.InDelta(t, 2.0, result.Competencies[0].Change, 1e-9)
}

func TestComparator_Compare_OverallChange(t *testing.T) {
	c := New(0.5, logger.NewNoOpLogger())
	computedAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	prev := snapshot(computedAt,
		currentScore("c1", val(3.0)),
		currentScore("c2", val(4.0)),
		currentScore("c3", nil), // missing on prior side, skipped
	)

	result := c.Compare("prev-1", prev, []models.CompetencyScore{
		currentScore("c1", val(4.0)),  // +1.0
		currentScore("c2", val(3.5)),  // -0.5
		currentScore("c3", val(4.0)),  // skipped
		currentScore("c4", val(2.0)),  // not in prior, skipped
	})

	require.NotNil(t, result)
	assert.Equal(t, "prev-1", result.PreviousAssessmentID)
	assert.Equal(t, computedAt, result.PreviousComputedAt)
	assert.Len(t, result.Competencies, 2)
	assert.InDelta(t, 0.25, result.OverallChange, 1e-9) // (1.0 - 0.5) / 2
	assert.Equal(t, models.TrendStable, result.OverallDirection)
}
