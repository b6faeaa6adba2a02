// internal/store/benchmarks_test.go
package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-engine/internal/models"
)

func TestBenchmarkStore_Upsert(t *testing.T) {
	db, mock := setupMockDB(t)

	bench := &models.Benchmark{
		ID:         "bench-1",
		AgencyID:   "agency-1",
		TemplateID: "tmpl-1",
		Competencies: []models.BenchmarkStat{
			{CompetencyID: "c1", Mean: 3.5, Median: 3.5, P25: 3.0, P75: 4.0, StdDev: 0.5, SampleSize: 10},
		},
		SampleSize: 10,
		ComputedAt: time.Now().UTC(),
	}

	competencies, err := json.Marshal(bench.Competencies)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO benchmarks").
		WithArgs("bench-1", "agency-1", "tmpl-1", competencies, 10, bench.ComputedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewBenchmarkStore(db).Upsert(context.Background(), bench)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBenchmarkStore_Get(t *testing.T) {
	db, mock := setupMockDB(t)

	competencies, err := json.Marshal([]models.BenchmarkStat{
		{CompetencyID: "c1", Mean: 3.5, SampleSize: 10},
	})
	require.NoError(t, err)

	computedAt := time.Now().UTC()
	mock.ExpectQuery("SELECT id, agency_id, template_id, competencies, sample_size, computed_at").
		WithArgs("agency-1", "tmpl-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "agency_id", "template_id", "competencies", "sample_size", "computed_at"}).
			AddRow("bench-1", "agency-1", "tmpl-1", competencies, 10, computedAt))

	bench, err := NewBenchmarkStore(db).Get(context.Background(), "agency-1", "tmpl-1")
	require.NoError(t, err)
	require.NotNil(t, bench)

	assert.Equal(t, 10, bench.SampleSize)
	stat, ok := bench.Stat("c1")
	require.True(t, ok)
	assert.InDelta(t, 3.5, stat.Mean, 1e-9)
}

func TestBenchmarkStore_Get_NoneComputed(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT id, agency_id, template_id, competencies, sample_size, computed_at").
		WithArgs("agency-1", "tmpl-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "agency_id", "template_id", "competencies", "sample_size", "computed_at"}))

	bench, err := NewBenchmarkStore(db).Get(context.Background(), "agency-1", "tmpl-1")
	require.NoError(t, err, "an absent benchmark is not an error")
	assert.Nil(t, bench)
}
