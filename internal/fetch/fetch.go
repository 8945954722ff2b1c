// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch issues HTTP GETs through a prioritized chain of direct
// and proxied routes, returning the first successful body.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pdiddy/arxiv-digest/internal/httputil"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// IdentifyingUserAgent is sent with every request.
const IdentifyingUserAgent = "Mozilla/5.0 (compatible; ArxivDigest/1.0;)"

const defaultMaxBodyBytes = 32 << 20

// Options carries per-call request settings.
type Options struct {
	// Header is merged into every attempt. The identifying User-Agent
	// always wins.
	Header http.Header
}

// Fetcher walks its route chain for each call. It holds only read-only
// configuration and is safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	routes      []Route
	constrained bool
	maxBody     int64
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithConstrained makes every fetch try a direct request before the chain.
func WithConstrained(constrained bool) Option {
	return func(f *Fetcher) { f.constrained = constrained }
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// New returns a Fetcher over a private copy of routes.
func New(client *http.Client, routes []Route, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &Fetcher{
		client:  client,
		routes:  append([]Route(nil), routes...),
		maxBody: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FromConfig builds a Fetcher from HTTP configuration.
func FromConfig(cfg types.HTTPConfig) (*Fetcher, error) {
	routes, err := RoutesByName(cfg.Routes, cfg.CorsShAPIKey)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: cfg.Timeout}
	constrained := cfg.Constrained || IsConstrainedClient(cfg.UserAgent)
	return New(client, routes, WithConstrained(constrained), WithMaxBodyBytes(cfg.MaxBodyBytes)), nil
}

// Routes returns a copy of the fallback chain.
func (f *Fetcher) Routes() []Route {
	return append([]Route(nil), f.routes...)
}

// Fetch returns the body of the first successful response for target.
//
// A constrained client first tries one direct request; any failure falls
// through to the route chain. Each route rewrites target and is tried
// once. When every route fails the result is an *ExhaustedError carrying
// the last route error. A cancelled ctx yields an error matching
// ErrCancelled.
func (f *Fetcher) Fetch(ctx context.Context, target string, opts Options) ([]byte, error) {
	log := zerolog.Ctx(ctx)
	var lastErr error

	if f.constrained {
		body, err := f.attempt(ctx, Direct(), target, opts)
		if err == nil {
			return body, nil
		}
		if stopErr := stopped(ctx, target, err); stopErr != nil {
			return nil, stopErr
		}
		log.Warn().Err(err).Str("url", target).Msg("direct request failed, falling back to proxies")
		lastErr = err
	}

	for _, route := range f.routes {
		body, err := f.attempt(ctx, route, target, opts)
		if err == nil {
			return body, nil
		}
		if stopErr := stopped(ctx, target, err); stopErr != nil {
			return nil, stopErr
		}
		log.Debug().Err(err).Str("route", route.Name).Str("url", target).Msg("route failed")
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errNoRoutes
	}
	exhaustedTotal.Inc()
	return nil, &ExhaustedError{URL: target, Last: lastErr}
}

// FetchWithRetry wraps Fetch in policy: each attempt is a full pass over
// the route chain. Cancellation ends retrying at once and yields an error
// matching ErrCancelled. A spent attempt budget or an expired deadline
// yields an error matching ErrFetchExhausted.
func (f *Fetcher) FetchWithRetry(ctx context.Context, target string, opts Options, policy httputil.RetryPolicy) ([]byte, error) {
	var body []byte
	err := policy.Do(ctx, func(ctx context.Context) error {
		b, err := f.Fetch(ctx, target, opts)
		if err != nil {
			return err
		}
		body = b
		return nil
	}, IsCancelled)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.Canceled):
			return nil, cancelled(ctx.Err())
		case IsCancelled(err):
			return nil, err
		case !errors.Is(err, ErrFetchExhausted):
			// A deadline that expired between attempts.
			return nil, &ExhaustedError{URL: target, Last: err}
		}
		return nil, err
	}
	return body, nil
}

// attempt issues one GET through route.
func (f *Fetcher) attempt(ctx context.Context, route Route, target string, opts Options) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, route.url(target), nil)
	if err != nil {
		attemptsTotal.WithLabelValues(route.Name, outcomeError).Inc()
		return nil, fmt.Errorf("route %s: creating request: %w", route.Name, err)
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range route.Header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	req.Header.Set("User-Agent", IdentifyingUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		outcome := outcomeError
		if ctx.Err() != nil {
			outcome = outcomeCancelled
		}
		attemptsTotal.WithLabelValues(route.Name, outcome).Inc()
		return nil, fmt.Errorf("route %s: %w", route.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		attemptsTotal.WithLabelValues(route.Name, outcomeStatus).Inc()
		return nil, &StatusError{Route: route.Name, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		attemptsTotal.WithLabelValues(route.Name, outcomeError).Inc()
		return nil, fmt.Errorf("route %s: reading body: %w", route.Name, err)
	}
	attemptsTotal.WithLabelValues(route.Name, outcomeOK).Inc()
	return body, nil
}

// stopped ends the route walk early once ctx is done. Cancellation maps
// to ErrCancelled; an expired deadline ends the walk as an exhausted fetch.
func stopped(ctx context.Context, target string, last error) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return cancelled(err)
	default:
		return &ExhaustedError{URL: target, Last: fmt.Errorf("%w: %v", err, last)}
	}
}
