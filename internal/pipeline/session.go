// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"sync"

	"github.com/pdiddy/arxiv-digest/internal/fetch"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// RunFunc is one invocation of a pipeline query.
type RunFunc func(ctx context.Context) ([]types.Paper, error)

// Session serializes re-invocations of a query so that the newest one
// wins. Each Submit cancels the run before it and only a run that is
// still the newest when it finishes gets to deliver its result.
type Session struct {
	mu     sync.Mutex
	epoch  uint64
	cancel context.CancelFunc
	latest []types.Paper
}

// Submit starts run under a context derived from ctx, cancelling any run
// still in flight. It reports ok=false with no error when the run was
// superseded or cancelled; its result is then discarded.
func (s *Session) Submit(ctx context.Context, run RunFunc) ([]types.Paper, bool, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.epoch++
	epoch := s.epoch
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	papers, err := run(runCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil, false, nil
	}
	s.cancel = nil
	if err != nil {
		if fetch.IsCancelled(err) {
			return nil, false, nil
		}
		return nil, true, err
	}
	s.latest = papers
	return papers, true, nil
}

// Latest returns the result of the most recent run that was delivered.
func (s *Session) Latest() []types.Paper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Paper(nil), s.latest...)
}

// Cancel stops the in-flight run, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.epoch++
}

// Sessions hands out one Session per key. A session reached through
// Submit is dropped once no run for its key is in flight.
type Sessions struct {
	mu   sync.Mutex
	m    map[string]*Session
	refs map[string]int
}

// Get returns the session for key, creating it on first use. A session
// obtained this way is kept until its key next goes idle under Submit.
func (ss *Sessions) Get(key string) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.getLocked(key)
}

func (ss *Sessions) getLocked(key string) *Session {
	if ss.m == nil {
		ss.m = map[string]*Session{}
	}
	s, ok := ss.m[key]
	if !ok {
		s = &Session{}
		ss.m[key] = s
	}
	return s
}

// Submit runs run on the session for key, as Session.Submit does.
func (ss *Sessions) Submit(ctx context.Context, key string, run RunFunc) ([]types.Paper, bool, error) {
	ss.mu.Lock()
	s := ss.getLocked(key)
	if ss.refs == nil {
		ss.refs = map[string]int{}
	}
	ss.refs[key]++
	ss.mu.Unlock()

	defer func() {
		ss.mu.Lock()
		defer ss.mu.Unlock()
		ss.refs[key]--
		if ss.refs[key] <= 0 {
			delete(ss.refs, key)
			delete(ss.m, key)
		}
	}()
	return s.Submit(ctx, run)
}

// Len reports the number of live sessions.
func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.m)
}
