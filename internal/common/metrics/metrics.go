// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoringRunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_runs_completed_total",
			Help: "Total number of scoring runs that produced a snapshot",
		},
		[]string{"mode"}, // complete | rescore
	)

	ScoringRunsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_runs_failed_total",
			Help: "Total number of scoring runs that failed",
		},
		[]string{"mode", "error_code"},
	)

	ScoringRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "scoring_run_duration_seconds",
			Help: "Duration of a full scoring run in seconds",
		},
		[]string{"mode"},
	)

	BenchmarkRecomputes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchmark_recomputes_total",
			Help: "Total number of benchmark recomputation attempts",
		},
		[]string{"status"}, // completed | conflict | failed
	)

	BenchmarkSampleSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "benchmark_sample_size",
			Help: "Completed assessments feeding a benchmark row",
		},
		[]string{"agency_id", "template_id"},
	)
)
