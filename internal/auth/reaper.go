// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// DefaultSweepInterval is how often the reaper purges expired records.
const DefaultSweepInterval = time.Hour

// ExpiryReaper periodically deletes refresh records past their expiry.
// It is pure hygiene: rotation and listing already ignore expired rows,
// so the reaper only reclaims storage and never affects correctness.
type ExpiryReaper struct {
	store    RefreshStore
	interval time.Duration
	logger   *slog.Logger
	onSweep  func(count int64)
}

// NewExpiryReaper creates an ExpiryReaper. A zero interval uses
// DefaultSweepInterval; a nil logger uses slog.Default.
func NewExpiryReaper(store RefreshStore, interval time.Duration, logger *slog.Logger) (*ExpiryReaper, error) {
	if store == nil {
		return nil, oops.Errorf("refresh store is required")
	}
	if interval < 0 {
		return nil, oops.Errorf("sweep interval must not be negative")
	}
	if interval == 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpiryReaper{store: store, interval: interval, logger: logger}, nil
}

// ObserveSweeps registers fn to receive the count of every successful
// sweep, typically to feed a metrics counter.
func (r *ExpiryReaper) ObserveSweeps(fn func(count int64)) {
	r.onSweep = fn
}

// Sweep deletes all records expired at now and returns the count.
func (r *ExpiryReaper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	count, err := r.store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, oops.Code("REAPER_SWEEP_FAILED").
			With("operation", "delete expired refresh records").
			Wrap(err)
	}
	if r.onSweep != nil {
		r.onSweep(count)
	}
	return count, nil
}

// Run sweeps on the configured interval until ctx is cancelled. Sweep
// failures are logged and the loop keeps going; storage hiccups must
// not kill the background job.
func (r *ExpiryReaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("expiry reaper started", "interval", r.interval.String())

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("expiry reaper stopped")
			return
		case now := <-ticker.C:
			count, err := r.Sweep(ctx, now)
			if err != nil {
				r.logger.Error("expiry sweep failed", "error", err)
				continue
			}
			if count > 0 {
				r.logger.Info("expired refresh records purged", "count", count)
			}
		}
	}
}
