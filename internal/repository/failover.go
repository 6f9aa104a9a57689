package repository

import (
	"context"
	"sync/atomic"
	"time"

	"coachbook/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverAttemptLimiter uses primary until it errors, then serves from fallback and
// retries primary once per recoveryInterval.
type FailoverAttemptLimiter struct {
	primary   domain.AttemptLimiter
	fallback  domain.AttemptLimiter
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverAttemptLimiter(primary, fallback domain.AttemptLimiter, logger *zerolog.Logger) *FailoverAttemptLimiter {
	return &FailoverAttemptLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverAttemptLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.isDown.Load() && r.now().Sub(time.Unix(0, r.lastCheck.Load())) > recoveryInterval {
		r.lastCheck.Store(r.now().UnixNano())
		if allowed, err := r.primary.Allow(ctx, key, limit, window); err == nil {
			r.logger.Info().Msg("Primary attempt limiter recovered")
			r.isDown.Store(false)
			return allowed, nil
		}
	}

	if !r.isDown.Load() {
		allowed, err := r.primary.Allow(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.logger.Error().Err(err).Msg("Primary attempt limiter failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck.Store(r.now().UnixNano())
	}

	return r.fallback.Allow(ctx, key, limit, window)
}
