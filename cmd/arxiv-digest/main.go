// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the arxiv-digest CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-digest/internal/config"
	"github.com/pdiddy/arxiv-digest/internal/fetch"
	"github.com/pdiddy/arxiv-digest/internal/logging"
	"github.com/pdiddy/arxiv-digest/internal/secrets"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// appConfig is resolved once per invocation before any subcommand runs.
var appConfig types.Config

// rootCmd is the base command for the arxiv-digest CLI.
var rootCmd = &cobra.Command{
	Use:   "arxiv-digest",
	Short: "Browse, tag and digest arXiv papers",
	Long: `arxiv-digest fetches paper metadata from the arXiv Atom API and the
HuggingFace daily listing, reconciles it with your tags and saved digests,
and prints the result or serves it over HTTP.

Requests to the upstream APIs go through a chain of proxy routes with
automatic fallback; configure the chain with http.routes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		secretsDir, _ := cmd.Flags().GetString("secrets-dir")

		s, err := secrets.Load(secretsDir, os.Stderr)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}

		v := config.New()
		cfg, err := config.Load(v, config.Options{File: cfgFile, Secrets: s})
		if err != nil {
			return err
		}
		if used := v.ConfigFileUsed(); used != "" {
			fmt.Fprintln(os.Stderr, "Using config file:", used)
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			cfg.Log.Level = "debug"
		}
		appConfig = cfg

		logger := logging.New(cfg.Log, os.Stderr)
		cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./arxiv-digest.yaml or ~/.config/arxiv-digest/arxiv-digest.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of API key files")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at debug level")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if code := exitStatus(os.Stderr, rootCmd.ExecuteContext(ctx)); code != 0 {
		os.Exit(code)
	}
}

// exitCancelled is the conventional status of a process stopped by SIGINT.
const exitCancelled = 130

// exitStatus reports err on w and returns the process exit code. An
// interrupted run exits without a message.
func exitStatus(w io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case fetch.IsCancelled(err):
		return exitCancelled
	default:
		fmt.Fprintln(w, "Error:", err)
		return 1
	}
}
