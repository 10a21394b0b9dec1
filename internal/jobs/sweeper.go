package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/profiledesk/internal/store"
)

// SweepConfig controls the slot sweeper.
type SweepConfig struct {
	Interval time.Duration
	// Retention is how long unconsumed results and consumption markers live.
	Retention time.Duration
	// StaleAfter fails Pending slots created longer ago than this.
	// Zero disables expiry.
	StaleAfter   time.Duration
	StaleMessage string
}

// StartSweeper runs a background goroutine that periodically removes
// results nobody polled for and fails slots whose job never reported back.
func StartSweeper(ctx context.Context, st store.SlotStore, cfg SweepConfig) {
	ticker := time.NewTicker(cfg.Interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Slot sweeper started",
			"interval", cfg.Interval,
			"retention", cfg.Retention,
			"stale_after", cfg.StaleAfter)

		for {
			select {
			case <-ticker.C:
				sweepOnce(ctx, st, cfg)
			case <-ctx.Done():
				slog.Info("Slot sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepOnce(ctx context.Context, st store.SlotStore, cfg SweepConfig) {
	if cfg.StaleAfter != 0 {
		expired, err := st.ExpirePending(ctx, cfg.StaleAfter, cfg.StaleMessage)
		if err != nil {
			slog.Error("Slot sweeper failed to expire pending slots", "error", err)
		} else if expired > 0 {
			slog.Warn("Slot sweeper failed stale pending slots", "count", expired)
		}
	}

	removed, err := st.SweepTerminal(ctx, cfg.Retention)
	if err != nil {
		slog.Error("Slot sweeper failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("Slot sweeper removed unconsumed results", "count", removed)
	}
}
