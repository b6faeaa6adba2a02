// internal/scoring/benchmark/engine.go
package benchmark

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/common/metrics"
	"assessment-engine/internal/models"
)

// SnapshotSource lists the computed results of every completed assessment
// for an agency across a template lineage.
type SnapshotSource interface {
	ListCompletedSnapshots(ctx context.Context, agencyID string, templateIDs []string) ([]models.ComputedAssessmentResults, error)
}

// LineageResolver expands a root template ID into every version in its
// lineage.
type LineageResolver interface {
	LineageIDs(ctx context.Context, templateID string) ([]string, error)
}

// Store persists benchmark rows. Upsert replaces the full row for the
// (agencyID, templateID) key: last full snapshot wins, no partial merge.
type Store interface {
	Upsert(ctx context.Context, b *models.Benchmark) error
}

type Config struct {
	LockTTL     time.Duration
	MinimumPool int
}

// Engine recomputes agency-wide normative statistics in batch. Each run
// is idempotent; concurrent runs for the same key are serialized by a
// Redis lock so writers never interleave.
type Engine struct {
	config    Config
	redis     *redis.Client
	snapshots SnapshotSource
	lineage   LineageResolver
	store     Store
	logger    logger.Logger
}

func NewEngine(config Config, rdb *redis.Client, snapshots SnapshotSource, lineage LineageResolver, store Store, log logger.Logger) *Engine {
	if config.LockTTL <= 0 {
		config.LockTTL = time.Minute
	}
	if config.MinimumPool < 1 {
		config.MinimumPool = 1
	}
	return &Engine{
		config:    config,
		redis:     rdb,
		snapshots: snapshots,
		lineage:   lineage,
		store:     store,
		logger:    log.WithFields(map[string]interface{}{"component": "benchmark-engine"}),
	}
}

func lockKey(agencyID, templateID string) string {
	return fmt.Sprintf("benchmark:lock:%s:%s", agencyID, templateID)
}

// Recompute rebuilds the full benchmark row for (agencyID, templateID)
// from every qualifying completed assessment. It returns
// BENCHMARK_RECOMPUTATION_CONFLICT when another writer holds the key; the
// scheduler retries, end users never see it.
func (e *Engine) Recompute(ctx context.Context, agencyID, templateID string) (*models.Benchmark, error) {
	key := lockKey(agencyID, templateID)
	token := uuid.NewString()

	acquired, err := e.redis.SetNX(ctx, key, token, e.config.LockTTL).Result()
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("benchmark lock", err)
	}
	if !acquired {
		metrics.BenchmarkRecomputes.WithLabelValues("conflict").Inc()
		return nil, errors.NewBenchmarkRecomputeLockedError(agencyID, templateID)
	}
	defer e.releaseLock(key, token)

	bench, err := e.compute(ctx, agencyID, templateID)
	if err != nil {
		metrics.BenchmarkRecomputes.WithLabelValues("failed").Inc()
		return nil, err
	}
	if bench == nil {
		e.logger.Info("benchmark pool below minimum, row not published", map[string]interface{}{
			"agencyId":   agencyID,
			"templateId": templateID,
		})
		return nil, nil
	}

	if err := e.store.Upsert(ctx, bench); err != nil {
		metrics.BenchmarkRecomputes.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.BenchmarkRecomputes.WithLabelValues("completed").Inc()
	metrics.BenchmarkSampleSize.WithLabelValues(agencyID, templateID).Set(float64(bench.SampleSize))

	e.logger.Info("benchmark recomputed", map[string]interface{}{
		"agencyId":   agencyID,
		"templateId": templateID,
		"sampleSize": bench.SampleSize,
	})

	return bench, nil
}

func (e *Engine) compute(ctx context.Context, agencyID, templateID string) (*models.Benchmark, error) {
	templateIDs, err := e.lineage.LineageIDs(ctx, templateID)
	if err != nil {
		return nil, err
	}

	snapshots, err := e.snapshots.ListCompletedSnapshots(ctx, agencyID, templateIDs)
	if err != nil {
		return nil, err
	}
	if len(snapshots) < e.config.MinimumPool {
		return nil, nil
	}

	// Per competency, collect the others'-average score from each snapshot
	// that carries one. Competency order follows first appearance so
	// repeated recomputation of the same pool yields the same row.
	valuesByCompetency := make(map[string][]float64)
	var competencyOrder []string
	for _, snap := range snapshots {
		for _, cs := range snap.CompetencyScores {
			if cs.OthersAverage == nil {
				continue
			}
			if _, seen := valuesByCompetency[cs.CompetencyID]; !seen {
				competencyOrder = append(competencyOrder, cs.CompetencyID)
			}
			valuesByCompetency[cs.CompetencyID] = append(valuesByCompetency[cs.CompetencyID], *cs.OthersAverage)
		}
	}

	bench := &models.Benchmark{
		ID:         uuid.NewString(),
		AgencyID:   agencyID,
		TemplateID: templateID,
		SampleSize: len(snapshots),
		ComputedAt: time.Now().UTC(),
	}

	for _, compID := range competencyOrder {
		values := valuesByCompetency[compID]
		bench.Competencies = append(bench.Competencies, models.BenchmarkStat{
			CompetencyID: compID,
			Mean:         Mean(values),
			Median:       Percentile(values, 0.50),
			P25:          Percentile(values, 0.25),
			P75:          Percentile(values, 0.75),
			StdDev:       StdDev(values),
			SampleSize:   len(values),
		})
	}

	return bench, nil
}

// releaseLock deletes the lock only when this run still owns it, so a run
// that outlived its TTL cannot release a successor's lock.
func (e *Engine) releaseLock(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
	if err := e.redis.Eval(ctx, script, []string{key}, token).Err(); err != nil && err != redis.Nil {
		e.logger.Warn("failed to release benchmark lock", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
}
