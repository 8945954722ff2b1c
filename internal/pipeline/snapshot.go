// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// Snapshot is the on-disk form of one query and its results, so a
// search can be reviewed later without hitting the API again.
type Snapshot struct {
	Query   SnapshotQuery   `yaml:"query"`
	Results []types.Paper   `yaml:"results"`
	Summary SnapshotSummary `yaml:"summary"`
}

// SnapshotQuery records what produced the results.
type SnapshotQuery struct {
	Kind     string   `yaml:"kind"`
	Query    string   `yaml:"query,omitempty"`
	Keywords []string `yaml:"keywords,omitempty"`
	DateFrom string   `yaml:"date_from,omitempty"`
	DateTo   string   `yaml:"date_to,omitempty"`
	Tag      string   `yaml:"tag,omitempty"`
	Digest   string   `yaml:"digest,omitempty"`
}

// SnapshotSummary stores result counts and when they were taken.
type SnapshotSummary struct {
	Total     int       `yaml:"total"`
	Timestamp time.Time `yaml:"timestamp"`
}

const dateFmt = "2006-01-02"

// FormatDate renders a window bound for a snapshot; zero times are omitted.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateFmt)
}

// WriteSnapshot saves a query and its results to a YAML file.
func WriteSnapshot(path string, q SnapshotQuery, papers []types.Paper) error {
	snap := Snapshot{
		Query:   q,
		Results: papers,
		Summary: SnapshotSummary{
			Total:     len(papers),
			Timestamp: time.Now().UTC(),
		},
	}
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a previously saved snapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &snap, nil
}

// Window parses the snapshot's stored date bounds.
func (q SnapshotQuery) Window() (start, end time.Time, err error) {
	if q.DateFrom != "" {
		if start, err = time.Parse(dateFmt, q.DateFrom); err != nil {
			return start, end, fmt.Errorf("invalid date_from %q: %w", q.DateFrom, err)
		}
	}
	if q.DateTo != "" {
		if end, err = time.Parse(dateFmt, q.DateTo); err != nil {
			return start, end, fmt.Errorf("invalid date_to %q: %w", q.DateTo, err)
		}
	}
	return start, end, nil
}
