package backend

import (
	"context"
	"sync"
	"time"

	"pulse-service/internal/util"

	"go.uber.org/zap"
)

// Prober reports whether the volatile backend is reachable. The Redis client
// satisfies it with a ping.
type Prober interface {
	Ping(ctx context.Context) error
}

// Selector picks the backend a logical scope runs against. The durable store
// is always usable; the volatile store is used only when enabled by
// configuration and reachable at resolution time. The decision is memoized
// per scope so a failed probe is not repeated on every call, and can be
// dropped again through Invalidate.
type Selector struct {
	durable  Store
	volatile Store
	prober   Prober
	enabled  bool
	logger   *zap.Logger

	mu   sync.Mutex
	memo map[string]Store
}

// NewSelector creates a selector. volatile and prober may be nil when the
// Redis backend is not configured.
func NewSelector(durable, volatile Store, prober Prober, enabled bool) *Selector {
	return &Selector{
		durable:  durable,
		volatile: volatile,
		prober:   prober,
		enabled:  enabled,
		logger:   util.GetLogger(),
		memo:     make(map[string]Store),
	}
}

// Resolve returns the backend for the scope. Resolution never fails: any
// problem with the volatile backend logs a warning and falls back to the
// durable store for the lifetime of the memo entry.
func (s *Selector) Resolve(ctx context.Context, scope string) Store {
	if !s.enabled || s.volatile == nil {
		return s.durable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.memo[scope]; ok {
		return cached
	}

	resolved := s.durable
	if s.prober != nil {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.prober.Ping(probeCtx)
		cancel()
		if err != nil {
			s.logger.Warn("Redis backend unavailable, falling back to SQL",
				zap.String("scope", scope),
				zap.Error(err))
			util.BackendFallbackTotal.Inc()
		} else {
			resolved = s.volatile
		}
	} else {
		resolved = s.volatile
	}

	s.memo[scope] = resolved
	return resolved
}

// Invalidate drops the memoized resolution for a scope so the next call
// probes again.
func (s *Selector) Invalidate(scope string) {
	s.mu.Lock()
	delete(s.memo, scope)
	s.mu.Unlock()
}
