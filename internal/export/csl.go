// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes paper lists in citation formats.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-digest/internal/arxiv"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// Format names an output encoding for FormatCSL.
type Format string

const (
	CSLYAML Format = "csl-yaml"
	CSLJSON Format = "csl-json"
)

// CSLItem is a bibliographic entry in CSL (Citation Style Language) form,
// consumable by Pandoc and reference managers.
type CSLItem struct {
	ID        string    `json:"id" yaml:"id"`
	Type      string    `json:"type" yaml:"type"`
	Title     string    `json:"title" yaml:"title"`
	Author    []CSLName `json:"author,omitempty" yaml:"author,omitempty"`
	Abstract  string    `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Issued    *CSLDate  `json:"issued,omitempty" yaml:"issued,omitempty"`
	URL       string    `json:"URL,omitempty" yaml:"URL,omitempty"`
	Number    string    `json:"number,omitempty" yaml:"number,omitempty"`
	Publisher string    `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Keyword   string    `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Note      string    `json:"note,omitempty" yaml:"note,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family  string `json:"family,omitempty" yaml:"family,omitempty"`
	Given   string `json:"given,omitempty" yaml:"given,omitempty"`
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
}

// CSLDate is a date as CSL date-parts.
type CSLDate struct {
	DateParts [][]int `json:"date-parts" yaml:"date-parts"`
}

// FormatCSL writes papers as a CSL list to w.
func FormatCSL(papers []types.Paper, format Format, w io.Writer) error {
	items := make([]CSLItem, len(papers))
	for i, p := range papers {
		items[i] = ToCSLItem(p)
	}

	switch format {
	case CSLYAML, "":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(items)
	case CSLJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	default:
		return fmt.Errorf("unsupported citation format %q", format)
	}
}

// ToCSLItem converts a paper to a preprint entry. A digest reason, when
// present, is carried as the note.
func ToCSLItem(p types.Paper) CSLItem {
	id := arxiv.CanonicalID(p.ID)
	item := CSLItem{
		ID:        "arxiv:" + id,
		Type:      "article",
		Title:     p.Title,
		Abstract:  p.Summary,
		URL:       p.Link,
		Number:    "arXiv:" + id,
		Publisher: "arXiv",
		Note:      p.Reason,
	}
	if item.URL == "" {
		item.URL = arxiv.AbsURL(id)
	}
	if p.Category != "" && p.Category != types.UnknownCategory {
		item.Keyword = p.Category
	}

	for _, a := range p.Authors {
		if n := parseAuthorName(a); n != (CSLName{}) {
			item.Author = append(item.Author, n)
		}
	}

	if !p.Published.IsZero() {
		d := p.Published.UTC()
		item.Issued = &CSLDate{
			DateParts: [][]int{{d.Year(), int(d.Month()), d.Day()}},
		}
	}
	return item
}

// parseAuthorName splits a full name on the last space: everything
// before is given, the last token is family. Single-token names use the
// literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
