// internal/store/benchmarks.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"assessment-engine/internal/common/errors"
	"assessment-engine/internal/models"
)

type BenchmarkStore struct {
	db *sql.DB
}

func NewBenchmarkStore(db *sql.DB) *BenchmarkStore {
	return &BenchmarkStore{db: db}
}

// Upsert replaces the benchmark row for its (agency, lineage root) key.
func (s *BenchmarkStore) Upsert(ctx context.Context, b *models.Benchmark) error {
	competencies, err := json.Marshal(b.Competencies)
	if err != nil {
		return errors.NewQueryExecutionFailedError("benchmark marshal", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO benchmarks (id, agency_id, template_id, competencies, sample_size, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (agency_id, template_id) DO UPDATE SET
			competencies = EXCLUDED.competencies,
			sample_size  = EXCLUDED.sample_size,
			computed_at  = EXCLUDED.computed_at`,
		b.ID, b.AgencyID, b.TemplateID, competencies, b.SampleSize, b.ComputedAt)
	if err != nil {
		return errors.NewQueryExecutionFailedError("benchmark upsert", err)
	}
	return nil
}

// Get returns the benchmark for an (agency, lineage root) key, or nil when
// none has been computed yet.
func (s *BenchmarkStore) Get(ctx context.Context, agencyID, templateID string) (*models.Benchmark, error) {
	var b models.Benchmark
	var competencies []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, agency_id, template_id, competencies, sample_size, computed_at
		FROM benchmarks
		WHERE agency_id = $1 AND template_id = $2`,
		agencyID, templateID).
		Scan(&b.ID, &b.AgencyID, &b.TemplateID, &competencies, &b.SampleSize, &b.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("benchmark get", err)
	}
	if err := json.Unmarshal(competencies, &b.Competencies); err != nil {
		return nil, errors.NewQueryExecutionFailedError("benchmark unmarshal", err)
	}
	return &b, nil
}
