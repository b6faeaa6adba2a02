// internal/scoring/benchmark/scheduler.go
package benchmark

import (
	"context"
	"time"

	"assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
)

// Key identifies one benchmark recomputation unit before lineage
// resolution.
type Key struct {
	AgencyID   string
	TemplateID string
}

// KeyLister enumerates the (agency, template) pairs with at least one
// completed assessment.
type KeyLister interface {
	ListBenchmarkKeys(ctx context.Context) ([]Key, error)
}

// RootResolver maps a template ID to its lineage root.
type RootResolver interface {
	RootOf(ctx context.Context, templateID string) (string, error)
}

// Scheduler drives periodic full benchmark recomputation. Keys resolving
// to the same lineage root are deduplicated so each benchmark row is
// rebuilt once per pass.
type Scheduler struct {
	engine     *Engine
	keys       KeyLister
	roots      RootResolver
	interval   time.Duration
	maxRetries int
	logger     logger.Logger
}

func NewScheduler(engine *Engine, keys KeyLister, roots RootResolver, interval time.Duration, maxRetries int, log logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Scheduler{
		engine:     engine,
		keys:       keys,
		roots:      roots,
		interval:   interval,
		maxRetries: maxRetries,
		logger:     log.WithFields(map[string]interface{}{"component": "benchmark-scheduler"}),
	}
}

// Run executes one pass immediately, then one per interval until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("benchmark scheduler stopped", nil)
			return
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

// RunOnce executes a single recomputation pass over every known key.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.pass(ctx)
}

func (s *Scheduler) pass(ctx context.Context) error {
	keys, err := s.keys.ListBenchmarkKeys(ctx)
	if err != nil {
		s.logger.WithError(err).Error("benchmark key listing failed", nil)
		return err
	}

	// Dedupe by lineage root: several template versions feed one row.
	seen := make(map[Key]bool)
	var units []Key
	for _, k := range keys {
		root, err := s.roots.RootOf(ctx, k.TemplateID)
		if err != nil {
			s.logger.WithError(err).Warn("lineage root resolution failed, key skipped", map[string]interface{}{
				"agencyId":   k.AgencyID,
				"templateId": k.TemplateID,
			})
			continue
		}
		unit := Key{AgencyID: k.AgencyID, TemplateID: root}
		if !seen[unit] {
			seen[unit] = true
			units = append(units, unit)
		}
	}

	for _, unit := range units {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.recomputeWithRetry(ctx, unit)
	}

	s.logger.Info("benchmark pass finished", map[string]interface{}{
		"units": len(units),
	})
	return nil
}

// recomputeWithRetry retries lock conflicts with a linear backoff; any
// other error is logged and the unit is left for the next pass.
func (s *Scheduler) recomputeWithRetry(ctx context.Context, unit Key) {
	for attempt := 0; ; attempt++ {
		_, err := s.engine.Recompute(ctx, unit.AgencyID, unit.TemplateID)
		if err == nil {
			return
		}
		if !errors.HasCode(err, errors.ErrCodeBenchmarkRecomputeLocked) || attempt >= s.maxRetries {
			s.logger.WithError(err).Warn("benchmark recompute failed", map[string]interface{}{
				"agencyId":   unit.AgencyID,
				"templateId": unit.TemplateID,
				"attempts":   attempt + 1,
			})
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt+1) * time.Second):
		}
	}
}
