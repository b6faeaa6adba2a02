// cmd/scoring-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"assessment-engine/internal/common/config"
	"assessment-engine/internal/common/database"
	"assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/common/observability"
	"assessment-engine/internal/models"
	"assessment-engine/internal/scoring/assembler"
	"assessment-engine/internal/scoring/benchmark"
	"assessment-engine/internal/search"
	"assessment-engine/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// benchmarkKeyAdapter bridges the assessment store's key listing to the
// scheduler's interface.
type benchmarkKeyAdapter struct {
	assessments *store.AssessmentStore
}

func (a *benchmarkKeyAdapter) ListBenchmarkKeys(ctx context.Context) ([]benchmark.Key, error) {
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

// scoringHandler adapts an assembler operation to a POST endpoint taking
// ?assessmentId=. Business conflicts map to 409, lookups to 404.
func scoringHandler(op func(context.Context, string) (*models.ComputedAssessmentResults, error), obs *observability.Observability, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		assessmentID := r.URL.Query().Get("assessmentId")
		if assessmentID == "" {
			http.Error(w, "assessmentId is required", http.StatusBadRequest)
			return
		}

		start := time.Now()
		results, err := op(r.Context(), assessmentID)
		if err != nil {
			obs.RecordRun(r.Context(), "failed")
			obs.RecordRunDuration(r.Context(), time.Since(start), "failed")
			log.Warn("scoring request failed",
				zap.String("assessmentId", assessmentID),
				zap.Error(err),
			)
			status := http.StatusInternalServerError
			switch errors.CodeOf(err) {
			case errors.ErrCodeAssessmentNotFound, errors.ErrCodeTemplateNotFound:
				status = http.StatusNotFound
			case errors.ErrCodeConcurrentCompletion, errors.ErrCodeInvalidStatusTransition:
				status = http.StatusConflict
			case errors.ErrCodeInsufficientData, errors.ErrCodeInvalidTemplateConfig:
				status = http.StatusUnprocessableEntity
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		obs.RecordRun(r.Context(), "completed")
		obs.RecordRunDuration(r.Context(), time.Since(start), "completed")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(results)
	}
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting scoring manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("scoring-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (optional) ---
	var esClient *database.ElasticsearchClient
	if cfg.Search.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Stores ---
	templates := store.NewTemplateStore(pg.DB, rdb.Client,
		time.Duration(cfg.Scoring.TemplateCacheTTL)*time.Second, log)
	assessments := store.NewAssessmentStore(pg.DB, log)
	invitations := store.NewInvitationStore(pg.DB)
	responses := store.NewResponseStore(pg.DB, log)
	benchmarks := store.NewBenchmarkStore(pg.DB)
	lineage := store.NewLineageWalker(pg.DB)

	var indexer assembler.SnapshotIndexer
	if esClient != nil {
		indexer = search.NewIndexer(esClient.Client, cfg.Search, log)
	}

	// The assembler is the completion surface the surrounding application
	// calls; the manager exposes it over admin endpoints and otherwise
	// only schedules benchmarks.
	asm := assembler.New(cfg.Scoring, templates, assessments, invitations,
		responses, lineage, rdb.Client, indexer, log)

	// --- Benchmark engine + scheduler ---
	engine := benchmark.NewEngine(benchmark.Config{
		LockTTL:     time.Duration(cfg.Benchmark.LockTTL) * time.Millisecond,
		MinimumPool: cfg.Benchmark.MinimumPool,
	}, rdb.Client, assessments, lineage, benchmarks, log)

	scheduler := benchmark.NewScheduler(engine,
		&benchmarkKeyAdapter{assessments: assessments}, lineage,
		time.Duration(cfg.Benchmark.Interval)*time.Second,
		cfg.Benchmark.MaxRetries, log)

	schedCtx, stopScheduler := context.WithCancel(ctx)
	go scheduler.Run(schedCtx)
	zapLog.Info("Benchmark scheduler started",
		zap.Int("intervalSeconds", cfg.Benchmark.Interval))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
		})
		http.HandleFunc("/admin/complete", scoringHandler(asm.Complete, obs, zapLog))
		http.HandleFunc("/admin/rescore", scoringHandler(asm.Rescore, obs, zapLog))
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.HTTP.MetricsAddress))
		if err := http.ListenAndServe(cfg.HTTP.MetricsAddress, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping scheduler...")
	stopScheduler()

	zapLog.Info("Scoring manager stopped")
}
