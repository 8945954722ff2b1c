// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the fetch, parse and reconcile stages into the
// queries the surfaces expose.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/arxiv-digest/internal/arxiv"
	"github.com/pdiddy/arxiv-digest/internal/fetch"
	"github.com/pdiddy/arxiv-digest/internal/listing"
	"github.com/pdiddy/arxiv-digest/internal/reconcile"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// Searcher runs arXiv queries. *arxiv.Client satisfies it.
type Searcher interface {
	SearchWindow(ctx context.Context, expr string, start, end time.Time) ([]types.Paper, error)
	SearchTitle(ctx context.Context, term string) ([]types.Paper, error)
	SearchKeywords(ctx context.Context, keywords []string) ([]types.Paper, error)
	Lookup(ctx context.Context, id string) (types.Paper, error)
}

// DailyCollector assembles the secondary listing. *listing.Collector
// satisfies it.
type DailyCollector interface {
	Collect(ctx context.Context, day time.Time) ([]types.Paper, error)
}

// TagSource yields the paper ids a user tagged with a name.
type TagSource interface {
	PaperIDsForTag(ctx context.Context, userID, tag string) ([]string, error)
}

// DigestSource yields the nightly results of a user's digest.
type DigestSource interface {
	DigestResults(ctx context.Context, userID, digest string, day time.Time) ([]types.DigestResult, error)
}

// Service runs the top-level queries. Nil sources disable the operations
// that need them.
type Service struct {
	Search      Searcher
	Daily       DailyCollector
	Tags        TagSource
	Digests     DigestSource
	Concurrency int
}

// BrowseRequest selects a date window and optionally a tag filter.
type BrowseRequest struct {
	Query  string
	Start  time.Time
	End    time.Time
	UserID string
	Tag    string
}

// withRun tags the context logger with a fresh run id.
func withRun(ctx context.Context, op string) (context.Context, zerolog.Logger) {
	log := zerolog.Ctx(ctx).With().Str("run", uuid.NewString()).Str("op", op).Logger()
	return log.WithContext(ctx), log
}

// SearchWindow returns papers matching expr published inside the window.
func (s *Service) SearchWindow(ctx context.Context, expr string, start, end time.Time) ([]types.Paper, error) {
	ctx, log := withRun(ctx, "search")
	papers, err := s.Search.SearchWindow(ctx, expr, start, end)
	if err != nil {
		return nil, topLevel(err)
	}
	papers = reconcile.Dedupe(papers)
	reconcile.SortByPublished(papers)
	log.Debug().Int("papers", len(papers)).Msg("window search complete")
	return papers, nil
}

// SearchTitle returns papers whose title matches term, newest first.
func (s *Service) SearchTitle(ctx context.Context, term string) ([]types.Paper, error) {
	ctx, _ = withRun(ctx, "title")
	papers, err := s.Search.SearchTitle(ctx, term)
	if err != nil {
		return nil, topLevel(err)
	}
	papers = reconcile.Dedupe(papers)
	reconcile.SortByPublished(papers)
	return papers, nil
}

// SearchKeywords returns papers matching every keyword, newest first.
func (s *Service) SearchKeywords(ctx context.Context, keywords []string) ([]types.Paper, error) {
	ctx, _ = withRun(ctx, "keywords")
	papers, err := s.Search.SearchKeywords(ctx, keywords)
	if err != nil {
		return nil, topLevel(err)
	}
	papers = reconcile.Dedupe(papers)
	reconcile.SortByPublished(papers)
	return papers, nil
}

// Browse runs a window search. With a tag selected it returns instead
// every paper the user tagged with it, whether or not the paper falls in
// the window. A tag without a user yields no papers.
func (s *Service) Browse(ctx context.Context, req BrowseRequest) ([]types.Paper, error) {
	ctx, log := withRun(ctx, "browse")
	papers, err := s.Search.SearchWindow(ctx, req.Query, req.Start, req.End)
	if err != nil {
		return nil, topLevel(err)
	}

	tag := strings.TrimSpace(req.Tag)
	if tag == "" {
		papers = reconcile.Dedupe(papers)
		reconcile.SortByPublished(papers)
		return papers, nil
	}
	if req.UserID == "" || s.Tags == nil {
		return nil, nil
	}

	ids, err := s.Tags.PaperIDsForTag(ctx, req.UserID, tag)
	if err != nil {
		return nil, fmt.Errorf("loading tagged papers: %w", err)
	}
	log.Debug().Str("tag", tag).Int("tagged", len(ids)).Int("in_window", len(papers)).Msg("reconciling")

	eng := &reconcile.Engine{Lookuper: s.Search, Concurrency: s.Concurrency}
	return eng.Reconcile(ctx, papers, ids)
}

// Tagged returns every paper the user tagged with tag, newest first.
// Each paper is looked up individually; no window search runs. A missing
// user or tag yields no papers.
func (s *Service) Tagged(ctx context.Context, userID, tag string) ([]types.Paper, error) {
	tag = strings.TrimSpace(tag)
	if userID == "" || tag == "" || s.Tags == nil {
		return nil, nil
	}
	ctx, log := withRun(ctx, "tagged")
	ids, err := s.Tags.PaperIDsForTag(ctx, userID, tag)
	if err != nil {
		return nil, fmt.Errorf("loading tagged papers: %w", err)
	}
	log.Debug().Str("tag", tag).Int("tagged", len(ids)).Msg("resolving")

	eng := &reconcile.Engine{Lookuper: s.Search, Concurrency: s.Concurrency}
	return eng.Reconcile(ctx, nil, ids)
}

// DailyPapers returns the listing papers for day.
func (s *Service) DailyPapers(ctx context.Context, day time.Time) ([]types.Paper, error) {
	if s.Daily == nil {
		return nil, fmt.Errorf("daily listing is not configured")
	}
	ctx, _ = withRun(ctx, "daily")
	papers, err := s.Daily.Collect(ctx, day)
	if err != nil {
		return nil, topLevel(err)
	}
	return papers, nil
}

// Digest resolves a digest's results for day, attaching each judgment to
// its paper. Papers whose lookup fails are left out. The result is
// ordered by relevancy score, highest first.
func (s *Service) Digest(ctx context.Context, userID, digest string, day time.Time) ([]types.Paper, error) {
	if s.Digests == nil {
		return nil, fmt.Errorf("digest results are not configured")
	}
	ctx, log := withRun(ctx, "digest")
	results, err := s.Digests.DigestResults(ctx, userID, digest, day)
	if err != nil {
		return nil, fmt.Errorf("loading digest results: %w", err)
	}

	limit := s.Concurrency
	if limit <= 0 {
		limit = reconcile.DefaultConcurrency
	}
	slots := make([]*types.Paper, len(results))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, r := range results {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			p, err := s.Search.Lookup(gctx, r.ArxivID)
			if err != nil {
				if !fetch.IsCancelled(err) {
					log.Warn().Err(err).Str("id", r.ArxivID).Msg("digest paper lookup failed")
				}
				return nil
			}
			joined := p.WithDigest(r.Reason, r.RelevancyScore)
			slots[i] = &joined
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", fetch.ErrCancelled, err)
	}

	var papers []types.Paper
	for _, p := range slots {
		if p != nil {
			papers = append(papers, *p)
		}
	}
	papers = reconcile.Dedupe(papers)
	reconcile.SortByRelevance(papers)
	return papers, nil
}

// topLevel wraps a failure of the primary fetch. Cancellation passes
// through untouched so callers can recognize it.
func topLevel(err error) error {
	if fetch.IsCancelled(err) {
		return err
	}
	return fmt.Errorf("fetching papers: %w", err)
}

// Compile-time checks that the concrete stages fit.
var (
	_ Searcher       = (*arxiv.Client)(nil)
	_ DailyCollector = (*listing.Collector)(nil)
)
