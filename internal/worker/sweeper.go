package worker

import (
	"context"
	"time"

	"pulse-service/config"
	"pulse-service/internal/backend"
	"pulse-service/internal/util"

	"go.uber.org/zap"
)

// Sweeper periodically deletes expired reservation and presence rows.
// Correctness never depends on it: every read re-filters by timestamp, so a
// sweep only reclaims storage. Running it on a ticker keeps the cleanup
// query off the write path entirely.
type Sweeper struct {
	store    backend.Store
	cfg      config.PulseConfig
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a sweeper for the given backend.
func NewSweeper(store backend.Store, cfg config.PulseConfig) *Sweeper {
	return &Sweeper{
		store:    store,
		cfg:      cfg,
		interval: cfg.SweepInterval,
		logger:   util.GetLogger(),
	}
}

// Run sweeps on every tick until the context is cancelled. Sweep failures
// are logged and the next tick tries again.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Sweeper started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := s.store.SweepExpired(sweepCtx, s.cfg.ReservationTTL, s.cfg.CartPresenceTTL, s.cfg.ViewerTTL)
	if err != nil {
		util.SweepRunsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Expiry sweep failed", zap.Error(err))
		return
	}
	util.SweepRunsTotal.WithLabelValues("ok").Inc()
}
