// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"
	"github.com/rs/zerolog"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// Kind selects how a response document is interpreted.
type Kind int

const (
	// KindSearch is a search_query result; a window may apply.
	KindSearch Kind = iota
	// KindLookup is an id_list result for a single identifier.
	KindLookup
)

func (k Kind) String() string {
	if k == KindLookup {
		return "lookup"
	}
	return "search"
}

// ErrMalformedDocument marks a response that could not be parsed at all.
var ErrMalformedDocument = errors.New("malformed arXiv document")

// ParseError is returned when the whole document is unusable.
type ParseError struct {
	Kind Kind
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing arXiv %s response: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrMalformedDocument, e.Err} }

// EntryDroppedError describes one entry skipped for a missing mandatory
// field. It is logged, never returned from Parse.
type EntryDroppedError struct {
	Index int
	ID    string
	Field string
}

func (e *EntryDroppedError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("entry %d dropped: missing %s", e.Index, e.Field)
	}
	return fmt.Sprintf("entry %d (%s) dropped: missing %s", e.Index, e.ID, e.Field)
}

// errorEntryMarker appears in the id of entries the API uses to report
// query errors in place of results.
const errorEntryMarker = "/api/errors"

// Parse turns an Atom response body into papers.
//
// A body that is empty or not a parsable feed yields a *ParseError. Each
// entry is otherwise extracted on its own; entries missing an id, title
// or parsable published time are dropped and logged. For KindSearch with
// a non-nil window, entries outside the window are excluded and the kept
// ones have Published normalized to UTC midnight.
func Parse(ctx context.Context, body []byte, kind Kind, window *Window) ([]types.Paper, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &ParseError{Kind: kind, Err: errors.New("empty body")}
	}

	fp := &atom.Parser{}
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Kind: kind, Err: err}
	}

	log := zerolog.Ctx(ctx)
	papers := make([]types.Paper, 0, len(feed.Entries))
	for i, entry := range feed.Entries {
		if entry == nil || strings.Contains(entry.ID, errorEntryMarker) {
			continue
		}
		p, err := extractEntry(i, entry)
		if err != nil {
			log.Warn().Err(err).Str("kind", kind.String()).Msg("skipping arXiv entry")
			continue
		}
		if kind == KindSearch && window != nil {
			if !window.Contains(p.Published) {
				continue
			}
			p.Published = StartOfDay(p.Published)
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// extractEntry applies the per-entry rules, short-circuiting on the first
// missing mandatory field.
func extractEntry(index int, e *atom.Entry) (types.Paper, error) {
	rawID := strings.TrimSpace(e.ID)
	id := ""
	if rawID != "" {
		id = CanonicalID(rawID)
	}
	if id == "" {
		return types.Paper{}, &EntryDroppedError{Index: index, Field: "id"}
	}

	title := collapse(e.Title)
	if title == "" {
		return types.Paper{}, &EntryDroppedError{Index: index, ID: id, Field: "title"}
	}

	published, ok := publishedTime(e)
	if !ok {
		return types.Paper{}, &EntryDroppedError{Index: index, ID: id, Field: "published"}
	}

	category := types.UnknownCategory
	for _, c := range e.Categories {
		if c != nil && strings.TrimSpace(c.Term) != "" {
			category = strings.TrimSpace(c.Term)
			break
		}
	}

	authors := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		if a == nil {
			continue
		}
		if name := collapse(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	link := AbsURL(id)
	for _, l := range e.Links {
		if l != nil && l.Type == "text/html" && l.Href != "" {
			link = l.Href
			break
		}
	}

	return types.Paper{
		ID:        id,
		Title:     title,
		Authors:   authors,
		Summary:   collapse(e.Summary),
		Published: published,
		Category:  category,
		Link:      link,
	}, nil
}

func publishedTime(e *atom.Entry) (time.Time, bool) {
	raw := strings.TrimSpace(e.Published)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if e.PublishedParsed != nil {
		return e.PublishedParsed.UTC(), true
	}
	return time.Time{}, false
}

// collapse folds every whitespace run to one space and trims the ends.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
