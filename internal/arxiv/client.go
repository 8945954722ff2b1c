// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv builds arXiv API queries, parses Atom responses into
// papers and filters them by publication window.
package arxiv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-digest/internal/fetch"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// ErrNotFound is returned by Lookup when the response holds no usable entry.
var ErrNotFound = errors.New("arXiv paper not found")

// Getter is the fetch layer the client depends on. *fetch.Fetcher
// satisfies it.
type Getter interface {
	Fetch(ctx context.Context, target string, opts fetch.Options) ([]byte, error)
}

// Client issues arXiv API queries through a Getter.
type Client struct {
	getter     Getter
	apiBase    string
	maxResults int
	keywordMax int
	defaultQ   string
}

// NewClient returns a client using cfg for the endpoint and result caps.
func NewClient(g Getter, cfg types.SearchConfig) *Client {
	def := types.DefaultConfig().Search
	c := &Client{
		getter:     g,
		apiBase:    cfg.APIBase,
		maxResults: cfg.MaxResults,
		keywordMax: cfg.KeywordMaxResults,
		defaultQ:   cfg.DefaultQuery,
	}
	if c.apiBase == "" {
		c.apiBase = def.APIBase
	}
	if c.maxResults <= 0 {
		c.maxResults = def.MaxResults
	}
	if c.keywordMax <= 0 {
		c.keywordMax = def.KeywordMaxResults
	}
	if strings.TrimSpace(c.defaultQ) == "" {
		c.defaultQ = types.DefaultQuery
	}
	return c
}

func xmlOptions() fetch.Options {
	h := http.Header{}
	h.Set("Accept", "application/xml")
	return fetch.Options{Header: h}
}

// SearchWindow runs expr restricted to papers submitted between start and
// end, keeping only entries whose UTC publication day lies in the window.
// An empty expr uses the configured default query.
func (c *Client) SearchWindow(ctx context.Context, expr string, start, end time.Time) ([]types.Paper, error) {
	if strings.TrimSpace(expr) == "" {
		expr = c.defaultQ
	}
	if end.Before(start) {
		start, end = end, start
	}
	w := NewWindow(start, end)
	target := SearchURL(c.apiBase, WindowQuery(expr, start, end), c.maxResults)
	return c.search(ctx, target, &w)
}

// SearchTitle matches term against paper titles. A blank term returns no
// papers without a request.
func (c *Client) SearchTitle(ctx context.Context, term string) ([]types.Paper, error) {
	if strings.TrimSpace(term) == "" {
		return nil, nil
	}
	return c.search(ctx, SearchURL(c.apiBase, TitleQuery(term), c.maxResults), nil)
}

// SearchKeywords requires every keyword to match some field.
func (c *Client) SearchKeywords(ctx context.Context, keywords []string) ([]types.Paper, error) {
	q := KeywordQuery(keywords)
	if q == "" {
		return nil, nil
	}
	return c.search(ctx, SearchURL(c.apiBase, q, c.keywordMax), nil)
}

// Lookup fetches one paper by identifier. The returned paper's ID is the
// canonical form of id.
func (c *Client) Lookup(ctx context.Context, id string) (types.Paper, error) {
	canonical := CanonicalID(id)
	if canonical == "" {
		return types.Paper{}, fmt.Errorf("%w: empty identifier", ErrNotFound)
	}
	body, err := c.getter.Fetch(ctx, LookupURL(c.apiBase, canonical), xmlOptions())
	if err != nil {
		return types.Paper{}, fmt.Errorf("looking up %s: %w", canonical, err)
	}
	papers, err := Parse(ctx, body, KindLookup, nil)
	if err != nil {
		return types.Paper{}, fmt.Errorf("looking up %s: %w", canonical, err)
	}
	if len(papers) == 0 {
		return types.Paper{}, fmt.Errorf("%w: %s", ErrNotFound, canonical)
	}
	p := papers[0]
	p.ID = canonical
	return p, nil
}

func (c *Client) search(ctx context.Context, target string, w *Window) ([]types.Paper, error) {
	body, err := c.getter.Fetch(ctx, target, xmlOptions())
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	return Parse(ctx, body, KindSearch, w)
}
