// internal/scoring/benchmark/scheduler_test.go
package benchmark

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

type fakeKeyLister struct {
	keys []Key
}

func (f *fakeKeyLister) ListBenchmarkKeys(ctx context.Context) ([]Key, error) {
	return f.keys, nil
}

type fakeRootResolver struct {
	roots map[string]string
}

func (f *fakeRootResolver) RootOf(ctx context.Context, templateID string) (string, error) {
	if root, ok := f.roots[templateID]; ok {
		return root, nil
	}
	return templateID, nil
}

type countingSnapshotSource struct {
	calls     int
	snapshots []models.ComputedAssessmentResults
}

func (c *countingSnapshotSource) ListCompletedSnapshots(ctx context.Context, agencyID string, templateIDs []string) ([]models.ComputedAssessmentResults, error) {
	c.calls++
	return c.snapshots, nil
}

func TestScheduler_RunOnce_DedupesByLineageRoot(t *testing.T) {
	_, rdb := setupMiniRedis(t)

	// tmpl-v2 and tmpl-v3 are versions of tmpl-v1: one recompute covers
	// all three.
	src := &countingSnapshotSource{snapshots: []models.ComputedAssessmentResults{
		snapshotWithScore("c1", 3.0),
	}}
	st := &fakeBenchmarkStore{}
	engine := NewEngine(Config{LockTTL: time.Minute, MinimumPool: 1},
		rdb, src, &fakeLineage{ids: []string{"tmpl-v1", "tmpl-v2", "tmpl-v3"}}, st,
		logger.NewTestLogger(t))

	scheduler := NewScheduler(engine,
		&fakeKeyLister{keys: []Key{
			{AgencyID: "agency-1", TemplateID: "tmpl-v1"},
			{AgencyID: "agency-1", TemplateID: "tmpl-v2"},
			{AgencyID: "agency-1", TemplateID: "tmpl-v3"},
			{AgencyID: "agency-2", TemplateID: "tmpl-v2"},
		}},
		&fakeRootResolver{roots: map[string]string{
			"tmpl-v2": "tmpl-v1",
			"tmpl-v3": "tmpl-v1",
		}},
		time.Hour, 0, logger.NewTestLogger(t))

	require.NoError(t, scheduler.RunOnce(context.Background()))

	// Two units: (agency-1, tmpl-v1) and (agency-2, tmpl-v1).
	assert.Equal(t, 2, src.calls)
	require.Len(t, st.upserted, 2)
	assert.Equal(t, "tmpl-v1", st.upserted[0].TemplateID)
	assert.Equal(t, "tmpl-v1", st.upserted[1].TemplateID)
}
