// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

type testEntry struct {
	id, title, published, summary, category string
	authors                                 []string
	htmlLink                                bool
}

func (e testEntry) xml() string {
	var b strings.Builder
	b.WriteString("<entry>\n")
	if e.id != "" {
		fmt.Fprintf(&b, "<id>%s</id>\n", e.id)
	}
	if e.title != "" {
		fmt.Fprintf(&b, "<title>%s</title>\n", e.title)
	}
	if e.published != "" {
		fmt.Fprintf(&b, "<published>%s</published>\n", e.published)
	}
	if e.summary != "" {
		fmt.Fprintf(&b, "<summary>%s</summary>\n", e.summary)
	}
	for _, a := range e.authors {
		fmt.Fprintf(&b, "<author><name>%s</name></author>\n", a)
	}
	if e.category != "" {
		fmt.Fprintf(&b, `<category term="%s" scheme="http://arxiv.org/schemas/atom"/>`+"\n", e.category)
	}
	if e.htmlLink {
		fmt.Fprintf(&b, `<link href="%s" rel="alternate" type="text/html"/>`+"\n", strings.Replace(e.id, "http://", "https://", 1))
	}
	fmt.Fprintf(&b, `<link title="pdf" href="%s" rel="related" type="application/pdf"/>`+"\n", strings.Replace(e.id, "/abs/", "/pdf/", 1))
	b.WriteString("</entry>\n")
	return b.String()
}

func feed(entries ...testEntry) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">` + "\n")
	b.WriteString("<title>ArXiv Query</title>\n<id>http://arxiv.org/api/query</id>\n")
	for _, e := range entries {
		b.WriteString(e.xml())
	}
	b.WriteString("</feed>\n")
	return []byte(b.String())
}

func valid(id, published string) testEntry {
	return testEntry{
		id:        "http://arxiv.org/abs/" + id + "v1",
		title:     "Paper " + id,
		published: published,
		summary:   "Abstract of " + id,
		category:  "cs.CL",
		authors:   []string{"Ada Lovelace", "Alan Turing"},
		htmlLink:  true,
	}
}

func TestParse_FullEntry(t *testing.T) {
	e := valid("2301.07041", "2023-01-17T18:59:59Z")
	e.title = "  Attention\n   Is    All\tYou Need  "
	e.summary = "\n  We propose\n a new   architecture.\n"

	papers, err := Parse(context.Background(), feed(e), KindSearch, nil)
	require.NoError(t, err)
	require.Len(t, papers, 1)

	p := papers[0]
	assert.Equal(t, "2301.07041", p.ID)
	assert.Equal(t, "Attention Is All You Need", p.Title)
	assert.Equal(t, "We propose a new architecture.", p.Summary)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, p.Authors)
	assert.Equal(t, "cs.CL", p.Category)
	assert.Equal(t, "https://arxiv.org/abs/2301.07041v1", p.Link)
	assert.Equal(t, time.Date(2023, 1, 17, 18, 59, 59, 0, time.UTC), p.Published)
	assert.Nil(t, p.RelevancyScore)
}

func TestParse_OptionalFieldDefaults(t *testing.T) {
	e := testEntry{
		id:        "http://arxiv.org/abs/2301.00001v2",
		title:     "Bare",
		published: "2023-01-01T00:00:00Z",
	}
	papers, err := Parse(context.Background(), feed(e), KindLookup, nil)
	require.NoError(t, err)
	require.Len(t, papers, 1)

	p := papers[0]
	assert.Equal(t, "", p.Summary)
	assert.Equal(t, types.UnknownCategory, p.Category)
	assert.Empty(t, p.Authors)
	assert.Equal(t, "https://arxiv.org/abs/2301.00001", p.Link)
}

func TestParse_MalformedEntriesInterleaved(t *testing.T) {
	noID := valid("2301.00010", "2023-01-02T00:00:00Z")
	noID.id = ""
	noTitle := valid("2301.00011", "2023-01-02T00:00:00Z")
	noTitle.title = ""
	badDate := valid("2301.00012", "yesterday-ish")
	noDate := valid("2301.00013", "")

	body := feed(
		valid("2301.00001", "2023-01-03T00:00:00Z"),
		noID,
		valid("2301.00002", "2023-01-02T00:00:00Z"),
		noTitle,
		badDate,
		valid("2301.00003", "2023-01-01T00:00:00Z"),
		noDate,
	)

	papers, err := Parse(context.Background(), body, KindSearch, nil)
	require.NoError(t, err)

	ids := make([]string, len(papers))
	for i, p := range papers {
		ids[i] = p.ID
		assert.NotEmpty(t, p.Title)
		assert.False(t, p.Published.IsZero())
	}
	assert.Equal(t, []string{"2301.00001", "2301.00002", "2301.00003"}, ids)
}

func TestParse_WindowInclusiveBoundaries(t *testing.T) {
	body := feed(
		valid("2301.00001", "2023-01-09T23:59:59Z"), // day before
		valid("2301.00002", "2023-01-10T00:00:00Z"), // first instant
		valid("2301.00003", "2023-01-12T12:00:00Z"),
		valid("2301.00004", "2023-01-15T23:59:59Z"), // last instant
		valid("2301.00005", "2023-01-16T00:00:00Z"), // day after
	)
	w := NewWindow(time.Date(2023, 1, 10, 15, 0, 0, 0, time.UTC), time.Date(2023, 1, 15, 3, 0, 0, 0, time.UTC))

	papers, err := Parse(context.Background(), body, KindSearch, &w)
	require.NoError(t, err)
	require.Len(t, papers, 3)

	assert.Equal(t, "2301.00002", papers[0].ID)
	assert.Equal(t, "2301.00003", papers[1].ID)
	assert.Equal(t, "2301.00004", papers[2].ID)
	for _, p := range papers {
		assert.Equal(t, StartOfDay(p.Published), p.Published, "published normalized to midnight")
	}
}

func TestParse_LookupIgnoresWindow(t *testing.T) {
	w := NewWindow(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	papers, err := Parse(context.Background(), feed(valid("2301.00001", "2023-01-03T10:20:30Z")), KindLookup, &w)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, time.Date(2023, 1, 3, 10, 20, 30, 0, time.UTC), papers[0].Published)
}

func TestParse_ErrorEntriesDropped(t *testing.T) {
	errEntry := testEntry{
		id:        "http://arxiv.org/api/errors#incorrect_id_format_for_garbage",
		title:     "Error",
		published: "2023-01-01T00:00:00Z",
		summary:   "incorrect id format for garbage",
	}
	papers, err := Parse(context.Background(), feed(errEntry), KindLookup, nil)
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestParse_MalformedDocument(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t"},
		{"not xml", "<<<this is not a feed"},
		{"html page", "<html><body>rate limited</body></html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tt.body), KindSearch, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedDocument)

			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestParse_EmptyFeedIsNotAnError(t *testing.T) {
	papers, err := Parse(context.Background(), feed(), KindSearch, nil)
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestEntryDroppedError(t *testing.T) {
	assert.Equal(t, "entry 3 dropped: missing id", (&EntryDroppedError{Index: 3, Field: "id"}).Error())
	assert.Equal(t, "entry 1 (2301.00001) dropped: missing title",
		(&EntryDroppedError{Index: 1, ID: "2301.00001", Field: "title"}).Error())
}
