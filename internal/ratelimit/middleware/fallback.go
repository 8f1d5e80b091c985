package middleware

import (
	"context"
	"log/slog"
	"time"

	"onboarding/internal/ratelimit/models"
	"onboarding/pkg/platform/circuit"
)

// FallbackStore wraps a shared primary store with a per-process fallback.
// After repeated primary failures the breaker opens and checks are served by
// the fallback until the primary recovers.
type FallbackStore struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewFallbackStore creates a store that degrades to fallback when primary is unavailable.
func NewFallbackStore(primary, fallback Store, breaker *circuit.Breaker, logger *slog.Logger) *FallbackStore {
	if breaker == nil {
		breaker = circuit.New("ratelimit-store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackStore{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
		logger:   logger,
	}
}

// Allow checks the primary store, falling back while the circuit is open.
// A primary error with the circuit still closed is returned to the caller.
func (f *FallbackStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	result, err := f.primary.Allow(ctx, key, limit, window)
	if err != nil {
		useFallback, change := f.breaker.RecordFailure()
		if change.Opened {
			f.logger.WarnContext(ctx, "rate limit store circuit opened, using in-memory fallback",
				"breaker", f.breaker.Name(),
				"error", err,
			)
		}
		if !useFallback {
			return nil, err
		}
		return f.allowFallback(ctx, key, limit, window)
	}

	usePrimary, change := f.breaker.RecordSuccess()
	if change.Closed {
		f.logger.InfoContext(ctx, "rate limit store circuit closed, primary restored",
			"breaker", f.breaker.Name(),
		)
	}
	if !usePrimary {
		return f.allowFallback(ctx, key, limit, window)
	}
	return result, nil
}

// IsDegraded reports whether checks are currently served by the fallback.
func (f *FallbackStore) IsDegraded() bool {
	return f.breaker.IsOpen()
}

func (f *FallbackStore) allowFallback(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	result, err := f.fallback.Allow(ctx, key, limit, window)
	if err != nil {
		return nil, err
	}
	result.Degraded = true
	return result, nil
}
