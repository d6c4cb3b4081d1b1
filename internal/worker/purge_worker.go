package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/college-marketplace/internal/auth"
)

// RefreshPurger deletes refresh tokens that expired unused.
type RefreshPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeWorker periodically drops expired revocation entries and refresh rows.
type PurgeWorker struct {
	revoked  auth.Purger
	refresh  RefreshPurger
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewPurgeWorker builds the worker. revoked is nil when the registry expires
// its own entries.
func NewPurgeWorker(revoked auth.Purger, refresh RefreshPurger, interval time.Duration, logger *zap.Logger) *PurgeWorker {
	return &PurgeWorker{
		revoked:  revoked,
		refresh:  refresh,
		interval: interval,
		now:      time.Now,
		logger:   logger.Named("purge"),
	}
}

// Run purges on every tick until ctx is cancelled.
func (w *PurgeWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("purge worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("purge worker stopped")
			return nil
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single purge pass. Failures are logged and retried on
// the next tick.
func (w *PurgeWorker) RunOnce(ctx context.Context) (revoked int, refresh int64) {
	if w.revoked != nil {
		revoked = w.revoked.Purge(w.now())
	}
	if w.refresh != nil {
		n, err := w.refresh.PurgeExpired(ctx)
		if err != nil {
			w.logger.Warn("refresh token purge failed", zap.Error(err))
		}
		refresh = n
	}
	if revoked > 0 || refresh > 0 {
		w.logger.Debug("purged expired credentials",
			zap.Int("revocations", revoked),
			zap.Int64("refresh_tokens", refresh))
	}
	return revoked, refresh
}
