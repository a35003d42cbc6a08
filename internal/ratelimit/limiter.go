// Package ratelimit caps how many images a user may generate in a trailing
// window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
)

const (
	DefaultLimit  = 50
	DefaultWindow = 24 * time.Hour
)

// GenerationCounter counts a user's generated images created at or after since.
type GenerationCounter interface {
	CountGeneratedSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// Limiter admits a generation while the user has fewer than Limit generated
// images in the window ending now. The check and the later inserts are not
// atomic, so concurrent requests can overshoot the limit.
type Limiter struct {
	counter GenerationCounter
	limit   int
	window  time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

func New(counter GenerationCounter, limit int, window time.Duration, logger zerolog.Logger) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{counter: counter, limit: limit, window: window, now: time.Now, logger: logger}
}

func (l *Limiter) Limit() int { return l.limit }
func (l *Limiter) Window() time.Duration { return l.window }

// CheckAndAdmit returns *domain.RateLimitError when the user is at or above the limit.
func (l *Limiter) CheckAndAdmit(ctx context.Context, userID int64) error {
	since := l.now().Add(-l.window)
	count, err := l.counter.CountGeneratedSince(ctx, userID, since)
	if err != nil {
		return domain.NewStorageError("count generations", err)
	}
	if count >= l.limit {
		l.logger.Info().Int64("user_id", userID).Int("count", count).Int("limit", l.limit).Msg("generation rate limit reached")
		return &domain.RateLimitError{Limit: l.limit, Window: l.window}
	}
	return nil
}

// Remaining reports how many generations the user has left in the window.
func (l *Limiter) Remaining(ctx context.Context, userID int64) (int, error) {
	count, err := l.counter.CountGeneratedSince(ctx, userID, l.now().Add(-l.window))
	if err != nil {
		return 0, fmt.Errorf("count generations: %w", err)
	}
	if count >= l.limit {
		return 0, nil
	}
	return l.limit - count, nil
}
