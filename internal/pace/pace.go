// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pace spaces out outbound requests so the upstream API's rate
// limits are respected. Callers depend only on the Pacer interface.
package pace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// Pacer blocks until the next request may be sent.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelay guarantees at least Delay between the starts of consecutive
// calls. The first call never waits.
type FixedDelay struct {
	delay time.Duration

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewFixedDelay returns a FixedDelay pacer. A non-positive delay disables pacing.
func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{delay: delay, now: time.Now}
}

// Wait sleeps for whatever remains of the delay since the previous call.
// It returns ctx.Err() if the context ends first; the slot is not consumed
// in that case.
func (p *FixedDelay) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.last.IsZero() && p.delay > 0 {
		if remaining := p.delay - p.now().Sub(p.last); remaining > 0 {
			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	p.last = p.now()
	return nil
}

// TokenBucket paces requests with a token-bucket limiter: bursts up to
// Burst requests, refilled at one token per interval.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket returns a limiter that refills one token every interval.
// A non-positive interval means no limit.
func NewTokenBucket(interval time.Duration, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &TokenBucket{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a token is available or ctx ends.
func (p *TokenBucket) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// New builds the pacer selected in cfg. The token bucket allows a burst of
// three requests, matching NCBI's three-requests-per-second allowance for
// callers without an API key.
func New(cfg types.PubMedConfig) (Pacer, error) {
	switch cfg.RateLimiter {
	case "", types.LimiterFixed:
		return NewFixedDelay(cfg.RequestDelay), nil
	case types.LimiterToken:
		return NewTokenBucket(cfg.RequestDelay, 3), nil
	default:
		return nil, fmt.Errorf("unknown rate limiter %q", cfg.RateLimiter)
	}
}
