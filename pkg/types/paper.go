// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the arxiv-digest pipeline.
// Implements: the Paper record, digest-result join records, tag and saved
// query records exchanged with the external store, and configuration.
package types

import "time"

// UnknownCategory is the category assigned when an entry carries no
// category marker.
const UnknownCategory = "Unknown"

// Paper is the normalized metadata record for one scholarly work.
// Papers are built once by a parser or a lookup and never mutated after
// they join a batch.
type Paper struct {
	// ID is the canonical arXiv identifier with any version suffix
	// stripped (e.g. "2301.07041", "hep-th/9901001").
	ID string `json:"id" yaml:"id"`

	// Title is whitespace-collapsed and never empty.
	Title string `json:"title" yaml:"title"`

	// Authors lists display names in document order.
	Authors []string `json:"authors" yaml:"authors"`

	// Summary is the whitespace-collapsed abstract, "" when absent.
	Summary string `json:"summary" yaml:"summary"`

	// Published is UTC midnight of the publication day inside a
	// date-filtered batch and full precision otherwise.
	Published time.Time `json:"published" yaml:"published"`

	// Category is the primary subject classification or UnknownCategory.
	Category string `json:"category" yaml:"category"`

	// Link is the browsable abstract page URL.
	Link string `json:"link" yaml:"link"`

	// Reason and RelevancyScore are attached only by the digest join.
	Reason         string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	RelevancyScore *float64 `json:"relevancy_score,omitempty" yaml:"relevancy_score,omitempty"`
}

// WithDigest returns a copy of p carrying a digest judgment.
func (p Paper) WithDigest(reason string, score float64) Paper {
	p.Authors = append([]string(nil), p.Authors...)
	p.Reason = reason
	p.RelevancyScore = &score
	return p
}

// Score returns the relevancy score, or 0 when the paper was not joined
// with a digest result.
func (p Paper) Score() float64 {
	if p.RelevancyScore == nil {
		return 0
	}
	return *p.RelevancyScore
}

// DigestResult is one nightly relevance judgment produced by the external
// digest job. The pipeline only reads these.
type DigestResult struct {
	ArxivID        string  `json:"arxiv_id" yaml:"arxiv_id"`
	Reason         string  `json:"reason" yaml:"reason"`
	RelevancyScore float64 `json:"relevancy_score" yaml:"relevancy_score"`
}

// Digest is a named, user-owned description of research interests that
// the nightly job scores papers against.
type Digest struct {
	ID          string    `json:"id" yaml:"id"`
	UserID      string    `json:"user_id" yaml:"user_id"`
	Name        string    `json:"name" yaml:"name"`
	Topics      []string  `json:"topics" yaml:"topics"`
	Description string    `json:"description" yaml:"description"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// PaperTag associates a user-chosen label with a paper identifier.
type PaperTag struct {
	ID        string    `json:"id" yaml:"id"`
	PaperID   string    `json:"paper_id" yaml:"paper_id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	Name      string    `json:"name" yaml:"name"`
	Color     string    `json:"color" yaml:"color"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// SavedQuery is a named search expression a user stored for reuse.
type SavedQuery struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	Name      string    `json:"name" yaml:"name"`
	Query     string    `json:"query" yaml:"query"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
