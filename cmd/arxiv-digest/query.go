// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Save and manage named search expressions",
	Long: `Saved queries are named arXiv search expressions. Run one with
"search --saved <name> --user <user>".`,
}

var querySaveCmd = &cobra.Command{
	Use:   "save <name> <expression>",
	Short: "Save a search expression under a name",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		st, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer st.Close()

		q, err := st.SaveQuery(cmd.Context(), user, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Saved query %s (%s)\n", q.Name, q.ID)
		return nil
	},
}

var queryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved queries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		st, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer st.Close()

		queries, err := st.Queries(cmd.Context(), user)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(os.Stdout, queries)
		}
		if len(queries) == 0 {
			fmt.Fprintln(os.Stdout, "No saved queries.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %s\n", "ID", "Name", "Query")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
		for _, q := range queries {
			fmt.Fprintf(os.Stdout, "%-36s  %-20s  %s\n", q.ID, truncate(q.Name, 20), truncate(q.Query, 40))
		}
		return nil
	},
}

var queryRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a saved query by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		st, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteQuery(cmd.Context(), user, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Deleted query %s\n", args[0])
		return nil
	},
}

func init() {
	queryListCmd.Flags().Bool("json", false, "output as JSON")

	queryCmd.PersistentFlags().String("user", "", "query owner")
	_ = queryCmd.MarkPersistentFlagRequired("user")

	queryCmd.AddCommand(querySaveCmd, queryListCmd, queryRemoveCmd)
	rootCmd.AddCommand(queryCmd)
}
