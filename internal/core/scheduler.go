package core

// scheduler.go prunes the import run history in the background.
//
// import_runs grows by one row per upload or CLI run. The pruner deletes
// entries older than the retention window on start and then on every tick.
// A failed pass is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls history pruning. Zero values take the defaults.
type RetentionConfig struct {
	RetentionDays int           // Days of history to keep (default: 90)
	CheckInterval time.Duration // How often to prune (default: 24h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 90
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartHistoryPruner runs until ctx is cancelled. Call it in a goroutine.
func (s *Service) StartHistoryPruner(ctx context.Context, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("history pruner started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.CheckInterval,
	)

	s.pruneHistory(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history pruner stopped")
			return
		case <-ticker.C:
			s.pruneHistory(ctx, cfg)
		}
	}
}

func (s *Service) pruneHistory(ctx context.Context, cfg RetentionConfig) {
	start := time.Now()
	cutoff := start.UTC().AddDate(0, 0, -cfg.RetentionDays)

	n, err := s.store.PruneImportRuns(ctx, cutoff)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return
	}
	slog.Info("pruned import history",
		"runs_deleted", n,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
