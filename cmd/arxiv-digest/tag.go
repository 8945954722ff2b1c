// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-digest/internal/pipeline"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Tag papers and list your tags",
	Long: `Tags are per-user labels on papers. Names are case-insensitive per
paper and each name keeps one color. List a tag's papers with
"tag papers <name>", or intersect them with a window search using
"search --tag <name>".`,
}

var tagAddCmd = &cobra.Command{
	Use:   "add <paper-id> <name>",
	Short: "Tag a paper",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		st, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer st.Close()

		t, err := st.AddTag(cmd.Context(), user, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Tagged %s with %q (%s)\n", t.PaperID, t.Name, t.Color)
		return nil
	},
}

var tagRemoveCmd = &cobra.Command{
	Use:   "rm <paper-id> <name>",
	Short: "Remove a tag from a paper",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		st, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.RemoveTag(cmd.Context(), user, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Removed %q from %s\n", args[1], args[0])
		return nil
	},
}

var tagListCmd = &cobra.Command{
	Use:   "list [paper-id]",
	Short: "List your tag names, or the tags on one paper",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		st, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer st.Close()

		if len(args) == 1 {
			tags, err := st.TagsForPaper(cmd.Context(), user, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(os.Stdout, tags)
			}
			if len(tags) == 0 {
				fmt.Fprintln(os.Stdout, "No tags.")
				return nil
			}
			for _, t := range tags {
				fmt.Fprintf(os.Stdout, "%-24s  %s\n", t.Name, t.Color)
			}
			return nil
		}

		names, err := st.TagNames(cmd.Context(), user)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(os.Stdout, names)
		}
		if len(names) == 0 {
			fmt.Fprintln(os.Stdout, "No tags.")
			return nil
		}
		fmt.Fprintln(os.Stdout, strings.Join(names, "\n"))
		return nil
	},
}

var tagPapersCmd = &cobra.Command{
	Use:   "papers <name>",
	Short: "List every paper tagged with a name, newest first",
	Long: `Papers looks up each paper you tagged with the name individually
through the arXiv API. No date window applies. Papers that cannot be
resolved are left out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		papers, err := a.service.Tagged(cmd.Context(), user, args[0])
		if err != nil {
			return err
		}
		if err := saveSnapshot(cmd, pipeline.SnapshotQuery{Kind: "tag", Tag: args[0]}, papers); err != nil {
			return err
		}
		return emitPapers(cmd, papers)
	},
}

func init() {
	tagListCmd.Flags().Bool("json", false, "output as JSON")
	addPaperOutputFlags(tagPapersCmd)

	tagCmd.PersistentFlags().String("user", "", "tag owner")
	_ = tagCmd.MarkPersistentFlagRequired("user")

	tagCmd.AddCommand(tagAddCmd, tagRemoveCmd, tagListCmd, tagPapersCmd)
	rootCmd.AddCommand(tagCmd)
}
