// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-digest/internal/arxiv"
	"github.com/pdiddy/arxiv-digest/internal/fetch"
	"github.com/pdiddy/arxiv-digest/internal/pipeline"
	"github.com/pdiddy/arxiv-digest/internal/store"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeQueries struct {
	mu       sync.Mutex
	browse   []pipeline.BrowseRequest
	browseFn func(ctx context.Context, req pipeline.BrowseRequest) ([]types.Paper, error)
	err      error
	papers   []types.Paper
	day      time.Time
	digest   [2]string
	tagged   [2]string
	keywords []string
}

func (f *fakeQueries) Browse(ctx context.Context, req pipeline.BrowseRequest) ([]types.Paper, error) {
	f.mu.Lock()
	f.browse = append(f.browse, req)
	fn := f.browseFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return f.papers, f.err
}

func (f *fakeQueries) SearchTitle(ctx context.Context, term string) ([]types.Paper, error) {
	return f.papers, f.err
}

func (f *fakeQueries) SearchKeywords(ctx context.Context, keywords []string) ([]types.Paper, error) {
	f.keywords = keywords
	return f.papers, f.err
}

func (f *fakeQueries) DailyPapers(ctx context.Context, day time.Time) ([]types.Paper, error) {
	f.day = day
	return f.papers, f.err
}

func (f *fakeQueries) Digest(ctx context.Context, userID, digest string, day time.Time) ([]types.Paper, error) {
	f.digest = [2]string{userID, digest}
	f.day = day
	return f.papers, f.err
}

func (f *fakeQueries) Tagged(ctx context.Context, userID, tag string) ([]types.Paper, error) {
	f.tagged = [2]string{userID, tag}
	return f.papers, f.err
}

var fixedNow = time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

func newTestServer(q Queries) (*Server, *gin.Engine) {
	s := New(q, zerolog.Nop())
	s.Now = func() time.Time { return fixedNow }
	return s, s.SetupRouter()
}

func get(t *testing.T, r http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodePapers(t *testing.T, w *httptest.ResponseRecorder) PapersResponse {
	t.Helper()
	var resp PapersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthz(t *testing.T) {
	_, r := newTestServer(&fakeQueries{})
	w := get(t, r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetrics(t *testing.T) {
	_, r := newTestServer(&fakeQueries{})
	w := get(t, r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "arxiv_digest_fetch_exhausted_total")
}

func TestBrowse_Params(t *testing.T) {
	q := &fakeQueries{papers: []types.Paper{{ID: "2301.00001", Title: "A"}}}
	_, r := newTestServer(q)

	w := get(t, r, "/papers?query=cat:cs.AI&from=2024-01-10&to=2024-01-12&user=u1&tag=ml")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodePapers(t, w)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "2301.00001", resp.Papers[0].ID)

	require.Len(t, q.browse, 1)
	got := q.browse[0]
	assert.Equal(t, "cat:cs.AI", got.Query)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), got.Start)
	assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), got.End)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "ml", got.Tag)
}

func TestBrowse_DefaultsToToday(t *testing.T) {
	q := &fakeQueries{}
	_, r := newTestServer(q)

	w := get(t, r, "/papers")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"papers":[],"total":0}`, w.Body.String())

	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, q.browse[0].Start)
	assert.Equal(t, today, q.browse[0].End)
}

func TestBrowse_BadDate(t *testing.T) {
	q := &fakeQueries{}
	_, r := newTestServer(q)

	w := get(t, r, "/papers?from=01/10/2024")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "from must be YYYY-MM-DD")
	assert.Empty(t, q.browse)
}

func TestBrowse_SupersededRequestGetsNoContent(t *testing.T) {
	entered := make(chan struct{}, 2)
	q := &fakeQueries{}
	q.browseFn = func(ctx context.Context, req pipeline.BrowseRequest) ([]types.Paper, error) {
		entered <- struct{}{}
		if req.Query == "first" {
			<-ctx.Done()
			return nil, fmt.Errorf("%w: %w", fetch.ErrCancelled, ctx.Err())
		}
		return []types.Paper{{ID: "2301.00002"}}, nil
	}
	_, r := newTestServer(q)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- get(t, r, "/papers?query=first", ClientIDHeader, "c1")
	}()
	<-entered

	second := get(t, r, "/papers?query=second", ClientIDHeader, "c1")
	<-entered

	select {
	case w := <-first:
		assert.Equal(t, http.StatusNoContent, w.Code)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded request never returned")
	}
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "2301.00002", decodePapers(t, second).Papers[0].ID)
}

func TestBrowse_DistinctClientsDoNotInterfere(t *testing.T) {
	q := &fakeQueries{papers: []types.Paper{{ID: "x"}}}
	s, r := newTestServer(q)

	assert.Equal(t, http.StatusOK, get(t, r, "/papers", ClientIDHeader, "a").Code)
	assert.Equal(t, http.StatusOK, get(t, r, "/papers", ClientIDHeader, "b").Code)
	assert.Zero(t, s.sessions.Len(), "finished sessions are dropped")
}

func TestKeywords_CommaList(t *testing.T) {
	q := &fakeQueries{}
	_, r := newTestServer(q)

	require.Equal(t, http.StatusOK, get(t, r, "/papers/keywords?k=llm,agents").Code)
	assert.Equal(t, []string{"llm", "agents"}, q.keywords)

	require.Equal(t, http.StatusOK, get(t, r, "/papers/keywords?k=llm&k=rag").Code)
	assert.Equal(t, []string{"llm", "rag"}, q.keywords)
}

func TestDaily(t *testing.T) {
	q := &fakeQueries{}
	_, r := newTestServer(q)

	require.Equal(t, http.StatusOK, get(t, r, "/papers/daily?date=2024-02-01").Code)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), q.day)
}

func TestDigest(t *testing.T) {
	q := &fakeQueries{}
	_, r := newTestServer(q)

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/digests/llm").Code)

	require.Equal(t, http.StatusOK, get(t, r, "/digests/llm?user=u1").Code)
	assert.Equal(t, [2]string{"u1", "llm"}, q.digest)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), q.day)
}

func TestTagged(t *testing.T) {
	q := &fakeQueries{papers: []types.Paper{{ID: "2301.00001"}}}
	_, r := newTestServer(q)

	w := get(t, r, "/tags/reading/papers")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "user is required")

	w = get(t, r, "/tags/reading/papers?user=u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [2]string{"u1", "reading"}, q.tagged)
	assert.Equal(t, 1, decodePapers(t, w).Total)
	assert.Empty(t, q.browse)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"exhausted", fmt.Errorf("fetching papers: %w", &fetch.ExhaustedError{URL: "u", Last: errors.New("boom")}), http.StatusBadGateway},
		{"malformed", fmt.Errorf("fetching papers: %w", &arxiv.ParseError{Kind: arxiv.KindSearch, Err: errors.New("bad")}), http.StatusBadGateway},
		{"deadline", fmt.Errorf("fetching papers: %w", fmt.Errorf("%w (last failure: %w)", context.DeadlineExceeded, &fetch.ExhaustedError{URL: "u", Last: errors.New("503")})), http.StatusBadGateway},
		{"digest missing", fmt.Errorf("loading digest results: %w", store.ErrNotFound), http.StatusNotFound},
		{"invalid", store.ErrInvalid, http.StatusBadRequest},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))

			_, r := newTestServer(&fakeQueries{err: tt.err})
			w := get(t, r, "/papers/title?q=x")
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestCancelledQueryIsNotAnError(t *testing.T) {
	_, r := newTestServer(&fakeQueries{err: fmt.Errorf("%w: %w", fetch.ErrCancelled, context.Canceled)})
	w := get(t, r, "/papers/title?q=x")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
