// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// fastPolicy keeps tests from sleeping for real.
func fastPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, Multiplier: 2}
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 3, p.Attempts)
	assert.Equal(t, 1000*time.Millisecond, p.BaseDelay)
	assert.Equal(t, 2.0, p.Multiplier)
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := DefaultRetryPolicy()
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, 0},
		{1, 1000 * time.Millisecond},
		{2, 2000 * time.Millisecond},
		{3, 4000 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Delay(tt.retry), "retry %d", tt.retry)
	}
}

func TestPolicyFromConfig_FillsDefaults(t *testing.T) {
	p := PolicyFromConfig(types.RetryConfig{})
	assert.Equal(t, DefaultRetryPolicy(), p)

	p = PolicyFromConfig(types.RetryConfig{Attempts: 2})
	assert.Equal(t, defaultBaseDelay, p.BaseDelay)

	p = PolicyFromConfig(types.RetryConfig{Attempts: 5, BaseDelay: time.Second, Multiplier: 3})
	assert.Equal(t, 5, p.Attempts)
	assert.Equal(t, 9*time.Second, p.Delay(3))
}

func TestRetryPolicy_ZeroDelayKept(t *testing.T) {
	p := RetryPolicy{Attempts: 2}
	assert.Zero(t, p.Delay(1))
}

func TestDo_ImmediateSuccess(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("always failing")
	}, nil)
	require.Error(t, err)
	assert.Equal(t, "always failing", err.Error())
	assert.Equal(t, 3, calls)
}

func TestDo_StopPredicateEndsEarly(t *testing.T) {
	terminal := errors.New("terminal")
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return terminal
	}, func(err error) bool { return errors.Is(err, terminal) })
	assert.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	p := RetryPolicy{Attempts: 5, BaseDelay: 500 * time.Millisecond, Multiplier: 2}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	transient := errors.New("transient")
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		return transient
	}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, transient, "the last failure stays matchable")
	assert.Equal(t, 1, calls)
}

func TestDo_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := fastPolicy().Do(ctx, func(context.Context) error {
		calls++
		return nil
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
