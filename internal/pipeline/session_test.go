// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-digest/internal/fetch"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// slowRun returns papers after delay unless its context ends first.
func slowRun(delay time.Duration, papers ...types.Paper) RunFunc {
	return func(ctx context.Context) ([]types.Paper, error) {
		select {
		case <-time.After(delay):
			return papers, nil
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", fetch.ErrCancelled, ctx.Err())
		}
	}
}

func TestSession_Delivers(t *testing.T) {
	var s Session
	papers, ok, err := s.Submit(context.Background(), slowRun(0, paper("a", 1)))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, ids(papers))
	assert.Equal(t, []string{"a"}, ids(s.Latest()))
}

func TestSession_LaterSubmitSupersedes(t *testing.T) {
	var s Session

	type outcome struct {
		papers []types.Paper
		ok     bool
		err    error
	}
	first := make(chan outcome, 1)
	started := make(chan struct{})
	go func() {
		papers, ok, err := s.Submit(context.Background(), func(ctx context.Context) ([]types.Paper, error) {
			close(started)
			return slowRun(5*time.Second, paper("stale", 1))(ctx)
		})
		first <- outcome{papers, ok, err}
	}()
	<-started

	papers, ok, err := s.Submit(context.Background(), slowRun(0, paper("fresh", 2)))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"fresh"}, ids(papers))

	select {
	case got := <-first:
		assert.False(t, got.ok)
		assert.NoError(t, got.err)
		assert.Nil(t, got.papers)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded run was not cancelled")
	}
	assert.Equal(t, []string{"fresh"}, ids(s.Latest()))
}

func TestSession_StaleResultIgnoringCancelIsDiscarded(t *testing.T) {
	// A run that ignores cancellation and finishes late must not win.
	var s Session
	release := make(chan struct{})
	done := make(chan bool, 1)
	started := make(chan struct{})
	go func() {
		_, ok, _ := s.Submit(context.Background(), func(context.Context) ([]types.Paper, error) {
			close(started)
			<-release
			return []types.Paper{paper("stale", 1)}, nil
		})
		done <- ok
	}()
	<-started

	_, ok, err := s.Submit(context.Background(), slowRun(0, paper("fresh", 2)))
	require.NoError(t, err)
	require.True(t, ok)

	close(release)
	assert.False(t, <-done)
	assert.Equal(t, []string{"fresh"}, ids(s.Latest()))
}

func TestSession_LastOfManyWins(t *testing.T) {
	var s Session
	var wg, entered sync.WaitGroup
	var mu sync.Mutex
	delivered := 0
	gate := make(chan struct{})

	const runs = 10
	entered.Add(runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := s.Submit(context.Background(), func(ctx context.Context) ([]types.Paper, error) {
				entered.Done()
				select {
				case <-gate:
					return []types.Paper{paper(fmt.Sprint(i), 1)}, nil
				case <-ctx.Done():
					return nil, fmt.Errorf("%w: %w", fetch.ErrCancelled, ctx.Err())
				}
			})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				delivered++
				mu.Unlock()
			}
		}()
	}
	entered.Wait()
	close(gate)
	wg.Wait()
	assert.Equal(t, 1, delivered, "only the newest run delivers")
}

func TestSession_ErrorsSurfaceWhenCurrent(t *testing.T) {
	var s Session
	boom := errors.New("boom")
	_, ok, err := s.Submit(context.Background(), func(context.Context) ([]types.Paper, error) { return nil, boom })
	assert.True(t, ok)
	assert.ErrorIs(t, err, boom)
}

func TestSession_Cancel(t *testing.T) {
	var s Session
	done := make(chan bool, 1)
	started := make(chan struct{})
	go func() {
		_, ok, err := s.Submit(context.Background(), func(ctx context.Context) ([]types.Paper, error) {
			close(started)
			return slowRun(5*time.Second)(ctx)
		})
		assert.NoError(t, err)
		done <- ok
	}()
	<-started
	s.Cancel()
	assert.False(t, <-done)
}

func TestSessions_PerKey(t *testing.T) {
	var ss Sessions
	a := ss.Get("client-a")
	assert.Same(t, a, ss.Get("client-a"))
	assert.NotSame(t, a, ss.Get("client-b"))
}

func TestSessions_DroppedWhenIdle(t *testing.T) {
	var ss Sessions

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan bool, 1)
	go func() {
		_, ok, _ := ss.Submit(context.Background(), "client-a", func(ctx context.Context) ([]types.Paper, error) {
			close(started)
			<-release
			return []types.Paper{paper("a", 1)}, nil
		})
		done <- ok
	}()
	<-started
	assert.Equal(t, 1, ss.Len())

	close(release)
	assert.True(t, <-done)
	assert.Zero(t, ss.Len())

	papers, ok, err := ss.Submit(context.Background(), "client-b", slowRun(0, paper("b", 2)))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"b"}, ids(papers))
	assert.Zero(t, ss.Len())
}

func TestSessions_SubmitSupersedesSameKey(t *testing.T) {
	var ss Sessions

	started := make(chan struct{})
	first := make(chan bool, 1)
	go func() {
		_, ok, _ := ss.Submit(context.Background(), "c1", func(ctx context.Context) ([]types.Paper, error) {
			close(started)
			return slowRun(5*time.Second, paper("stale", 1))(ctx)
		})
		first <- ok
	}()
	<-started

	papers, ok, err := ss.Submit(context.Background(), "c1", slowRun(0, paper("fresh", 2)))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"fresh"}, ids(papers))
	assert.False(t, <-first)
	assert.Zero(t, ss.Len())
}
