// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile merges a fetched batch with out-of-band identifiers,
// looking up the ones the batch lacks.
package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/arxiv-digest/internal/arxiv"
	"github.com/pdiddy/arxiv-digest/internal/fetch"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// DefaultConcurrency bounds in-flight lookups when Engine.Concurrency is unset.
const DefaultConcurrency = 8

// Lookuper fetches a single paper by identifier. *arxiv.Client satisfies it.
type Lookuper interface {
	Lookup(ctx context.Context, id string) (types.Paper, error)
}

// Engine reconciles batches against identifier sets.
type Engine struct {
	Lookuper    Lookuper
	Concurrency int
}

// Reconcile returns the papers named by ids: those already in primary
// plus those fetched individually. Papers in primary that ids does not
// name are discarded. Failed lookups are dropped, not retried. The result
// has unique ids and is sorted by publication time, newest first.
//
// The only error is cancellation of ctx, reported as fetch.ErrCancelled.
func (e *Engine) Reconcile(ctx context.Context, primary []types.Paper, ids []string) ([]types.Paper, error) {
	wanted := make(map[string]bool, len(ids))
	order := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := arxiv.CanonicalID(raw)
		if id == "" || wanted[id] {
			continue
		}
		wanted[id] = true
		order = append(order, id)
	}
	if len(order) == 0 {
		return nil, ctxErr(ctx)
	}

	present := make(map[string]bool, len(primary))
	var out []types.Paper
	for _, p := range primary {
		id := arxiv.CanonicalID(p.ID)
		if !wanted[id] || present[id] {
			continue
		}
		present[id] = true
		out = append(out, p)
	}

	var missing []string
	for _, id := range order {
		if !present[id] {
			missing = append(missing, id)
		}
	}

	fetched, err := e.lookupAll(ctx, missing)
	if err != nil {
		return nil, err
	}
	out = append(out, fetched...)

	out = Dedupe(out)
	SortByPublished(out)
	return out, nil
}

// lookupAll fetches ids concurrently. Results are collected into slots
// indexed by position, so completion order never matters.
func (e *Engine) lookupAll(ctx context.Context, ids []string) ([]types.Paper, error) {
	if len(ids) == 0 {
		return nil, ctxErr(ctx)
	}
	log := zerolog.Ctx(ctx)

	limit := e.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	slots := make([]*types.Paper, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, id := range ids {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			p, err := e.Lookuper.Lookup(gctx, id)
			if err != nil {
				if !fetch.IsCancelled(err) {
					log.Warn().Err(err).Str("id", id).Msg("supplemental lookup failed, dropping paper")
				}
				return nil
			}
			slots[i] = &p
			return nil
		})
	}
	g.Wait()

	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	var out []types.Paper
	for _, p := range slots {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", fetch.ErrCancelled, err)
	}
	return nil
}

// Dedupe keeps the first paper for each canonical id, preserving order.
func Dedupe(papers []types.Paper) []types.Paper {
	seen := make(map[string]bool, len(papers))
	out := papers[:0:0]
	for _, p := range papers {
		id := arxiv.CanonicalID(p.ID)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, p)
	}
	return out
}

// SortByPublished orders papers newest first; equal timestamps fall back
// to id, descending, so the order is total.
func SortByPublished(papers []types.Paper) {
	sort.SliceStable(papers, func(i, j int) bool {
		a, b := papers[i], papers[j]
		if !a.Published.Equal(b.Published) {
			return a.Published.After(b.Published)
		}
		return a.ID > b.ID
	})
}

// SortByRelevance orders digest-joined papers by relevancy score, highest
// first. Ties keep their existing order.
func SortByRelevance(papers []types.Paper) {
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Score() > papers[j].Score()
	})
}
