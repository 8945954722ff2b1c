// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/pdiddy/arxiv-digest/internal/arxiv"
	"github.com/pdiddy/arxiv-digest/internal/fetch"
	"github.com/pdiddy/arxiv-digest/internal/httputil"
	"github.com/pdiddy/arxiv-digest/internal/listing"
	"github.com/pdiddy/arxiv-digest/internal/pipeline"
	"github.com/pdiddy/arxiv-digest/internal/store"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// app bundles the wired pipeline and the store backing it.
type app struct {
	service *pipeline.Service
	store   *store.Store
}

func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// newApp wires the fetcher, arXiv client, listing collector and store
// from cfg.
func newApp(cfg types.Config) (*app, error) {
	f, err := fetch.FromConfig(cfg.HTTP)
	if err != nil {
		return nil, fmt.Errorf("configuring fetcher: %w", err)
	}
	client := arxiv.NewClient(f, cfg.Search)
	collector := &listing.Collector{
		Getter:      f,
		Lookuper:    client,
		BaseURL:     cfg.Listing.BaseURL,
		Policy:      httputil.PolicyFromConfig(cfg.Retry),
		Concurrency: cfg.Reconcile.Concurrency,
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}

	return &app{
		service: &pipeline.Service{
			Search:      client,
			Daily:       collector,
			Tags:        st,
			Digests:     st,
			Concurrency: cfg.Reconcile.Concurrency,
		},
		store: st,
	}, nil
}

// openStore opens only the store, for commands that never hit the network.
func openStore(cfg types.Config) (*store.Store, error) {
	return store.Open(cfg.Store)
}
