// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-digest/internal/pipeline"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "List the papers featured on the HuggingFace daily page",
	Long: `Daily fetches the HuggingFace daily papers page for --date, resolves
each listed paper through the arXiv API and prints them newest first.
Papers that cannot be resolved are left out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		papers, err := a.service.DailyPapers(cmd.Context(), day)
		if err != nil {
			return err
		}
		if err := saveSnapshot(cmd, pipeline.SnapshotQuery{
			Kind:     "daily",
			DateFrom: pipeline.FormatDate(day),
			DateTo:   pipeline.FormatDate(day),
		}, papers); err != nil {
			return err
		}
		return emitPapers(cmd, papers)
	},
}

func init() {
	dailyCmd.Flags().String("date", "", "listing date (YYYY-MM-DD, default today)")
	addPaperOutputFlags(dailyCmd)

	rootCmd.AddCommand(dailyCmd)
}
