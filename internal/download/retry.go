// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download wraps binary fetches with a bounded, fixed-delay retry.
package download

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// DefaultAttempts is used when Retrier.Attempts is not positive.
const DefaultAttempts = 3

// Error reports that every attempt to fetch an item failed.
type Error struct {
	ID       string
	Attempts int
	// Err is the failure of the last attempt.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("download %s failed after %d attempt(s): %v", e.ID, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FetchFunc performs one download attempt. Returning (nil, nil) means there
// is nothing to download; the retrier passes that through as a success.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Observer is notified after every attempt. attempt starts at 1.
type Observer func(id string, attempt int, err error)

// Retrier calls a FetchFunc up to Attempts times, sleeping Delay between
// attempts. There is no backoff and no jitter.
type Retrier struct {
	Attempts int
	Delay    time.Duration
	Logger   *zap.Logger
	Observe  Observer
}

// NewRetrier builds a Retrier from the download settings.
func NewRetrier(cfg types.DownloadConfig, log *zap.Logger) *Retrier {
	return &Retrier{
		Attempts: cfg.MaxRetries,
		Delay:    cfg.RetryDelay,
		Logger:   log,
	}
}

// Fetch returns the bytes of the first successful attempt. After the last
// failed attempt it returns *Error. Only the end of ctx stops retrying
// early, in which case ctx.Err() is returned; a request timeout while ctx
// is live is retried like any other failure.
func (r *Retrier) Fetch(ctx context.Context, id string, fn FetchFunc) ([]byte, error) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := fn(ctx)
		if r.Observe != nil {
			r.Observe(id, attempt, err)
		}
		if err == nil {
			return data, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		log.Warn("download attempt failed, retrying",
			zap.String("id", id),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", r.Delay),
			zap.Error(err))

		if r.Delay > 0 {
			timer := time.NewTimer(r.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return nil, &Error{ID: id, Attempts: attempts, Err: lastErr}
}
