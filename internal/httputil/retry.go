// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

const (
	defaultAttempts   = 3
	defaultBaseDelay  = 1000 * time.Millisecond
	defaultMultiplier = 2.0
)

// RetryPolicy describes exponential backoff: up to Attempts tries in
// total, waiting BaseDelay before the second try and multiplying the
// wait by Multiplier for each try after that.
type RetryPolicy struct {
	Attempts   int
	BaseDelay  time.Duration
	Multiplier float64
}

// DefaultRetryPolicy returns 3 attempts starting at 1000ms and doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   defaultAttempts,
		BaseDelay:  defaultBaseDelay,
		Multiplier: defaultMultiplier,
	}
}

// PolicyFromConfig builds a policy from configuration, filling zero
// fields with the defaults.
func PolicyFromConfig(cfg types.RetryConfig) RetryPolicy {
	p := RetryPolicy{
		Attempts:   cfg.Attempts,
		BaseDelay:  cfg.BaseDelay,
		Multiplier: cfg.Multiplier,
	}
	if p.BaseDelay == 0 {
		p.BaseDelay = defaultBaseDelay
	}
	return p.normalized()
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = defaultAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.Multiplier <= 0 {
		p.Multiplier = defaultMultiplier
	}
	return p
}

// Delay returns the wait before retry number n (n=1 is the first retry):
// BaseDelay * Multiplier^(n-1).
func (p RetryPolicy) Delay(n int) time.Duration {
	p = p.normalized()
	if n < 1 {
		return 0
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(n-1)))
}

// Do runs op until it succeeds or the attempt budget is spent, returning
// the last error. It stops immediately when ctx is done or when op
// returns an error that is terminal according to stop (nil stop means
// every error is retried). Waiting between attempts observes ctx; a
// cancelled wait returns ctx.Err() wrapped with the last failure.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error, stop func(error) bool) error {
	p = p.normalized()
	log := zerolog.Ctx(ctx)

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w (last failure: %w)", err, lastErr)
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if stop != nil && stop(lastErr) {
			return lastErr
		}
		if attempt >= p.Attempts {
			return lastErr
		}

		backoff := p.Delay(attempt)
		log.Debug().Err(lastErr).
			Dur("backoff", backoff).
			Int("attempt", attempt).
			Int("attempts", p.Attempts).
			Msg("retrying after failure")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last failure: %w)", ctx.Err(), lastErr)
		case <-timer.C:
		}
	}
}
