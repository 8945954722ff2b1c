// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-digest/internal/pipeline"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Manage digests and show their nightly results",
	Long: `A digest is a named set of topics. An external nightly job judges
new papers against each digest and records a reason and relevancy score
per paper; import those results with "digest import" and view them with
"digest show".`,
}

// --- show subcommand ---

var digestShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a digest's results for a day, most relevant first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		dateFlag, _ := cmd.Flags().GetString("date")

		day, err := parseDay(dateFlag, today())
		if err != nil {
			return err
		}

		a, err := newApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		papers, err := a.service.Digest(cmd.Context(), user, args[0], day)
		if err != nil {
			return err
		}
		if err := saveSnapshot(cmd, pipeline.SnapshotQuery{
			Kind:     "digest",
			Digest:   args[0],
			DateFrom: pipeline.FormatDate(day),
			DateTo:   pipeline.FormatDate(day),
		}, papers); err != nil {
			return err
		}
		return emitPapers(cmd, papers)
	},
}

// --- create subcommand ---

var digestCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Define a new digest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		topics, _ := cmd.Flags().GetStringSlice("topics")
		description, _ := cmd.Flags().GetString("description")

		st, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer st.Close()

		d, err := st.CreateDigest(cmd.Context(), user, args[0], topics, description)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Created digest %s (%s)\n", d.Name, d.ID)
		return nil
	},
}

// --- import subcommand ---

var digestImportCmd = &cobra.Command{
	Use:   "import <results.yaml>",
	Short: "Import a nightly results file into a digest",
	Long: `Import reads a YAML results file of the form

  digest: llm-agents
  date: 2024-01-15
  results:
    - arxiv_id: 2401.01234
      reason: Introduces a new agent benchmark.
      relevancy_score: 8.5

and stores the results under your digest of that name. Importing the same
day again replaces matching entries.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		st, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.ImportDigestResults(cmd.Context(), user, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Imported %d results\n", n)
		return nil
	},
}

// --- list subcommand ---

var digestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your digests",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		st, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer st.Close()

		digests, err := st.Digests(cmd.Context(), user)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(os.Stdout, digests)
		}
		if len(digests) == 0 {
			fmt.Fprintln(os.Stdout, "No digests.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-24s  %-40s  %s\n", "Name", "Topics", "Created")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
		for _, d := range digests {
			fmt.Fprintf(os.Stdout, "%-24s  %-40s  %s\n",
				truncate(d.Name, 24), truncate(strings.Join(d.Topics, ", "), 40), d.CreatedAt.Format(dateFmt))
		}
		return nil
	},
}

// --- delete subcommand ---

var digestDeleteCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a digest and its results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		st, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteDigest(cmd.Context(), user, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Deleted digest %s\n", args[0])
		return nil
	},
}

func init() {
	digestShowCmd.Flags().String("date", "", "results date (YYYY-MM-DD, default today)")
	addPaperOutputFlags(digestShowCmd)

	digestCreateCmd.Flags().StringSlice("topics", nil, "topics the digest covers (comma-separated)")
	digestCreateCmd.Flags().String("description", "", "free-text description")

	digestListCmd.Flags().Bool("json", false, "output as JSON")

	digestCmd.PersistentFlags().String("user", "", "digest owner")
	_ = digestCmd.MarkPersistentFlagRequired("user")

	digestCmd.AddCommand(digestShowCmd, digestCreateCmd, digestImportCmd, digestListCmd, digestDeleteCmd)
	rootCmd.AddCommand(digestCmd)
}
