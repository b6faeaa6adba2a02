// cmd/tools/benchmark-rebuild/main.go

// benchmark-rebuild forces a full benchmark recomputation outside the
// scheduler, either for every known key or a single (agency, template)
// pair. Intended for operator use after deleting assessments, since a
// scheduled pass never shrinks a sample on its own.
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"assessment-engine/internal/common/config"
	"assessment-engine/internal/common/database"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/scoring/benchmark"
	"assessment-engine/internal/store"
)

func main() {
	agencyID := flag.String("agency", "", "rebuild only this agency's benchmarks")
	templateID := flag.String("template", "", "rebuild only this template's benchmark (requires -agency)")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		zapLog.Fatal("postgres ping failed", zap.Error(err))
	}

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis connection failed", zap.Error(err))
	}
	defer rdb.Close()

	assessments := store.NewAssessmentStore(pg.DB, log)
	benchmarks := store.NewBenchmarkStore(pg.DB)
	lineage := store.NewLineageWalker(pg.DB)

	engine := benchmark.NewEngine(benchmark.Config{
		LockTTL:     time.Duration(cfg.Benchmark.LockTTL) * time.Millisecond,
		MinimumPool: cfg.Benchmark.MinimumPool,
	}, rdb.Client, assessments, lineage, benchmarks, log)

	if *agencyID != "" && *templateID != "" {
		root, err := lineage.RootOf(ctx, *templateID)
		if err != nil {
			zapLog.Fatal("lineage resolution failed", zap.Error(err))
		}
		if _, err := engine.Recompute(ctx, *agencyID, root); err != nil {
			zapLog.Fatal("benchmark rebuild failed",
				zap.String("agencyId", *agencyID),
				zap.String("templateId", root),
				zap.Error(err),
			)
		}
		zapLog.Info("benchmark rebuilt",
			zap.String("agencyId", *agencyID),
			zap.String("templateId", root),
		)
		return
	}

	scheduler := benchmark.NewScheduler(engine, &keyAdapter{assessments}, lineage,
		time.Hour, cfg.Benchmark.MaxRetries, log)
	if err := scheduler.RunOnce(ctx); err != nil {
		zapLog.Fatal("benchmark rebuild pass failed", zap.Error(err))
	}
	zapLog.Info("benchmark rebuild pass finished")
}

type keyAdapter struct {
	assessments *store.AssessmentStore
}

func (a *keyAdapter) ListBenchmarkKeys(ctx context.Context) ([]benchmark.Key, error) {
	keys, err := a.assessments.ListBenchmarkKeys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]benchmark.Key, 0, len(keys))
	for _, k := range keys {
		out = append(out, benchmark.Key{AgencyID: k.AgencyID, TemplateID: k.TemplateID})
	}
	return out, nil
}
