// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-digest/internal/pipeline"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Browse arXiv papers submitted in a date window",
	Long: `Search queries the arXiv API for papers matching an expression and
submitted between --from and --to (inclusive, UTC days; both default to
today). Without --query the configured default expression is used, or
--saved names one of your saved queries.

With --tag the window result is replaced by every paper you tagged with
that name; papers outside the window are looked up individually.

--save writes the query and results to a YAML snapshot; --load prints a
snapshot without contacting arXiv.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	if load, _ := cmd.Flags().GetString("load"); load != "" {
		snap, err := pipeline.ReadSnapshot(load)
		if err != nil {
			return err
		}
		return emitPapers(cmd, snap.Results)
	}

	query, _ := cmd.Flags().GetString("query")
	saved, _ := cmd.Flags().GetString("saved")
	fromFlag, _ := cmd.Flags().GetString("from")
	toFlag, _ := cmd.Flags().GetString("to")
	tag, _ := cmd.Flags().GetString("tag")
	user, _ := cmd.Flags().GetString("user")

	start, err := parseDay(fromFlag, today())
	if err != nil {
		return err
	}
	end, err := parseDay(toFlag, start)
	if err != nil {
		return err
	}

	a, err := newApp(appConfig)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if saved != "" {
		if query != "" {
			return fmt.Errorf("--query and --saved are mutually exclusive")
		}
		q, err := a.store.QueryByName(ctx, user, saved)
		if err != nil {
			return err
		}
		query = q.Query
	}

	papers, err := a.service.Browse(ctx, pipeline.BrowseRequest{
		Query:  query,
		Start:  start,
		End:    end,
		UserID: user,
		Tag:    tag,
	})
	if err != nil {
		return err
	}

	if err := saveSnapshot(cmd, pipeline.SnapshotQuery{
		Kind:     "window",
		Query:    query,
		DateFrom: pipeline.FormatDate(start),
		DateTo:   pipeline.FormatDate(end),
		Tag:      tag,
	}, papers); err != nil {
		return err
	}
	return emitPapers(cmd, papers)
}

var titleCmd = &cobra.Command{
	Use:   "title <term>",
	Short: "Search arXiv papers by title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := strings.Join(args, " ")

		a, err := newApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		papers, err := a.service.SearchTitle(cmd.Context(), term)
		if err != nil {
			return err
		}
		if err := saveSnapshot(cmd, pipeline.SnapshotQuery{Kind: "title", Query: term}, papers); err != nil {
			return err
		}
		return emitPapers(cmd, papers)
	},
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords <keyword>...",
	Short: "Search arXiv papers matching every keyword",
	Long: `Keywords searches all fields for papers matching every keyword given.
Quote a multi-word keyword to match it as a phrase. Results are capped
by search.keyword_max_results.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		a, err := newApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		papers, err := a.service.SearchKeywords(cmd.Context(), args)
		if err != nil {
			return err
		}
		if err := saveSnapshot(cmd, pipeline.SnapshotQuery{Kind: "keywords", Keywords: args}, papers); err != nil {
			return err
		}
		return emitPapers(cmd, papers)
	},
}

func saveSnapshot(cmd *cobra.Command, q pipeline.SnapshotQuery, papers []types.Paper) error {
	path, _ := cmd.Flags().GetString("save")
	if path == "" {
		return nil
	}
	if err := pipeline.WriteSnapshot(path, q, papers); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved %d papers to %s\n", len(papers), path)
	return nil
}

func init() {
	searchCmd.Flags().String("query", "", "arXiv search expression (default: search.default_query)")
	searchCmd.Flags().String("saved", "", "run the saved query with this name (requires --user)")
	searchCmd.Flags().String("from", "", "window start (YYYY-MM-DD, default today)")
	searchCmd.Flags().String("to", "", "window end (YYYY-MM-DD, default --from)")
	searchCmd.Flags().String("tag", "", "show papers tagged with this name instead of the window")
	searchCmd.Flags().String("user", "", "user owning tags and saved queries")
	searchCmd.Flags().String("load", "", "print a saved snapshot instead of searching")

	for _, c := range []*cobra.Command{searchCmd, titleCmd, keywordsCmd} {
		addPaperOutputFlags(c)
		rootCmd.AddCommand(c)
	}
}
