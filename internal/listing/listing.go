// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package listing turns the daily papers page into arXiv papers. It reads
// the page's paper anchors, collapses duplicate links to one candidate per
// canonical identifier and resolves each candidate through the arXiv API.
package listing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/arxiv-digest/internal/arxiv"
	"github.com/pdiddy/arxiv-digest/internal/fetch"
	"github.com/pdiddy/arxiv-digest/internal/httputil"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// paperAnchors selects links into the listing's per-paper pages.
const paperAnchors = `a[href^="/papers/"]`

// Candidate is one distinct paper referenced by the listing.
type Candidate struct {
	ID    string
	Title string
	// Position is the candidate's order of first appearance on the page.
	Position int
}

// ExtractCandidates reads paper anchors from an HTML listing. Hrefs are
// reduced to canonical identifiers; empty or non-arXiv-shaped ids are
// skipped and only the first anchor per id survives.
func ExtractCandidates(r io.Reader) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing daily listing: %w", err)
	}

	index := map[string]int{}
	var out []Candidate
	doc.Find(paperAnchors).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		id := arxiv.CanonicalID(href)
		if id == "" || !arxiv.LooksLikeID(id) {
			return
		}
		title := strings.Join(strings.Fields(a.Text()), " ")
		if i, seen := index[id]; seen {
			if out[i].Title == "" {
				out[i].Title = title
			}
			return
		}
		index[id] = len(out)
		out = append(out, Candidate{ID: id, Title: title, Position: len(out)})
	})
	return out, nil
}

// Getter fetches a page under a retry policy. *fetch.Fetcher satisfies it.
type Getter interface {
	FetchWithRetry(ctx context.Context, target string, opts fetch.Options, policy httputil.RetryPolicy) ([]byte, error)
}

// Lookuper resolves one identifier. *arxiv.Client satisfies it.
type Lookuper interface {
	Lookup(ctx context.Context, id string) (types.Paper, error)
}

// Collector assembles the papers listed for one day.
type Collector struct {
	Getter      Getter
	Lookuper    Lookuper
	BaseURL     string
	Policy      httputil.RetryPolicy
	Concurrency int
}

// ListingURL returns the daily page address for day's UTC date.
func ListingURL(baseURL string, day time.Time) string {
	return strings.TrimSuffix(baseURL, "/") + "/papers?date=" + day.UTC().Format("2006-01-02")
}

// Collect fetches the listing for day, resolves every distinct candidate
// and returns at most one paper per id, newest first. Candidates whose
// lookup fails are dropped. Papers published at the same instant keep
// their listing order.
func (c *Collector) Collect(ctx context.Context, day time.Time) ([]types.Paper, error) {
	log := zerolog.Ctx(ctx)

	h := http.Header{}
	h.Set("Accept", "text/html")
	target := ListingURL(c.BaseURL, day)
	body, err := c.Getter.FetchWithRetry(ctx, target, fetch.Options{Header: h}, c.Policy)
	if err != nil {
		return nil, fmt.Errorf("fetching daily listing: %w", err)
	}

	candidates, err := ExtractCandidates(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	log.Debug().Int("candidates", len(candidates)).Str("url", target).Msg("daily listing parsed")

	slots := make([]*types.Paper, len(candidates))
	limit := c.Concurrency
	if limit <= 0 {
		limit = 8
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, cand := range candidates {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			p, err := c.Lookuper.Lookup(gctx, cand.ID)
			if err != nil {
				if !fetch.IsCancelled(err) {
					log.Warn().Err(err).Str("id", cand.ID).Msg("listing lookup failed, dropping paper")
				}
				return nil
			}
			slots[i] = &p
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", fetch.ErrCancelled, err)
	}

	type ranked struct {
		paper types.Paper
		pos   int
	}
	var found []ranked
	seen := map[string]bool{}
	for i, p := range slots {
		if p == nil || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		found = append(found, ranked{paper: *p, pos: candidates[i].Position})
	}
	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if !a.paper.Published.Equal(b.paper.Published) {
			return a.paper.Published.After(b.paper.Published)
		}
		return a.pos < b.pos
	})

	out := make([]types.Paper, len(found))
	for i, r := range found {
		out[i] = r.paper
	}
	return out, nil
}
