// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-digest/internal/export"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

const dateFmt = "2006-01-02"

// parseDay parses a YYYY-MM-DD flag value; empty yields fallback.
func parseDay(raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(dateFmt, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", raw)
	}
	return t, nil
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// addPaperOutputFlags registers the flags emitPapers and saveSnapshot read.
func addPaperOutputFlags(c *cobra.Command) {
	c.Flags().Bool("json", false, "output results as JSON")
	c.Flags().String("csl", "", "output results as citations: csl-yaml or csl-json")
	c.Flags().String("save", "", "write the query and results to a YAML snapshot")
}

// emitPapers writes papers to stdout in the format the command's flags select.
func emitPapers(cmd *cobra.Command, papers []types.Paper) error {
	if csl, _ := cmd.Flags().GetString("csl"); csl != "" {
		return export.FormatCSL(papers, export.Format(csl), os.Stdout)
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return printPapers(os.Stdout, papers, jsonOutput)
}

// printPapers writes papers as a table, or as JSON when jsonOutput is set.
// Digest judgments get an extra score column when any paper carries one.
func printPapers(w io.Writer, papers []types.Paper, jsonOutput bool) error {
	if jsonOutput {
		if papers == nil {
			papers = []types.Paper{}
		}
		return writeJSON(w, papers)
	}

	if len(papers) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return nil
	}

	scored := false
	for _, p := range papers {
		if p.RelevancyScore != nil {
			scored = true
			break
		}
	}

	if scored {
		fmt.Fprintf(w, "%-4s  %-12s  %-10s  %-5s  %-60s\n", "#", "ID", "Published", "Score", "Title")
		fmt.Fprintln(w, strings.Repeat("-", 100))
	} else {
		fmt.Fprintf(w, "%-4s  %-12s  %-10s  %-8s  %-60s\n", "#", "ID", "Published", "Category", "Title")
		fmt.Fprintln(w, strings.Repeat("-", 100))
	}

	for i, p := range papers {
		title := truncate(p.Title, 60)
		published := p.Published.UTC().Format(dateFmt)
		if scored {
			fmt.Fprintf(w, "%-4d  %-12s  %-10s  %-5.1f  %s\n", i+1, p.ID, published, p.Score(), title)
			if p.Reason != "" {
				fmt.Fprintf(w, "      %s\n", truncate(p.Reason, 94))
			}
			continue
		}
		fmt.Fprintf(w, "%-4d  %-12s  %-10s  %-8s  %s\n", i+1, p.ID, published, truncate(p.Category, 8), title)
	}

	fmt.Fprintf(w, "\n%d papers\n", len(papers))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
