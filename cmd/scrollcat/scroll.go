// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/elastic/scrollcat/internal/es/scroll"
	"github.com/elastic/scrollcat/internal/logging"
	"github.com/elastic/scrollcat/internal/output"
)

var (
	scrollQuery     string
	scrollQueryFile string
	scrollOutput    string
	scrollFormat    string
	keepAliveFlag   time.Duration
	maxPagesFlag    int
	maxRetriesFlag  int
)

var scrollCmd = &cobra.Command{
	Use:   "scroll",
	Short: "Fetch every page of a search",
	Long: `Runs the query with scrolling enabled and follows the cursor until a page
comes back empty. Pages are written in retrieval order, seed page first.

Nothing is written if any request fails after its retry.

Examples:
  scrollcat scroll                                   # match_all on the configured index
  scrollcat scroll -i logs --query '{"size":500,"query":{"term":{"level":"error"}}}'
  scrollcat scroll --query-file query.json -o pages.json
  cat query.json | scrollcat scroll --query-file - --format hits`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScroll(cmd.Context())
	},
}

func init() {
	scrollCmd.Flags().StringVarP(&scrollQuery, "query", "q", "", "Search body as JSON (default: match_all)")
	scrollCmd.Flags().StringVar(&scrollQueryFile, "query-file", "", "Read the search body from a file, or - for stdin")
	scrollCmd.Flags().StringVarP(&scrollOutput, "output", "o", "", "Write results to this file instead of stdout")
	scrollCmd.Flags().StringVarP(&scrollFormat, "format", "f", string(output.FormatJSON), "Output format: json, ndjson, hits")
	scrollCmd.Flags().DurationVar(&keepAliveFlag, "keep-alive", scroll.DefaultKeepAlive, "Scroll context keep-alive (env: SCROLLCAT_SCROLL_KEEP_ALIVE)")
	scrollCmd.Flags().IntVar(&maxPagesFlag, "max-pages", scroll.DefaultMaxPages, "Fail after this many pages, 0 for no limit (env: SCROLLCAT_SCROLL_MAX_PAGES)")
	scrollCmd.Flags().IntVar(&maxRetriesFlag, "max-retries", 1, "Retries per request after the first attempt (env: SCROLLCAT_SCROLL_MAX_RETRIES)")
	rootCmd.AddCommand(scrollCmd)
}

func runScroll(ctx context.Context) error {
	cfg, err := loadedConfig(ctx)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(scrollFormat)
	if err != nil {
		return err
	}

	query, err := readBody(scrollQuery, scrollQueryFile, os.Stdin, defaultQuery)
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	logger := logging.NewLogger("cli")
	start := time.Now()

	rs, err := scroll.NewFetcher(client, scrollOptions(cfg)).FetchAll(ctx, scroll.Query(query))
	if err != nil {
		logger.Error().Err(err).Str("index", cfg.ES.Index).Msg("Scroll failed")
		return fmt.Errorf("scroll %s: %w", cfg.ES.Index, err)
	}

	w, err := output.Open(scrollOutput)
	if err != nil {
		return err
	}
	if err := output.Write(w, rs, format); err != nil {
		_ = w.Close()
		return fmt.Errorf("write results: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	logger.Info().
		Int("pages", len(rs)).
		Int("hits", rs.TotalHits()).
		Dur("elapsed", time.Since(start)).
		Str("output", outputName(scrollOutput)).
		Msg("Scroll complete")
	return nil
}

func outputName(path string) string {
	if path == "" || path == "-" {
		return "stdout"
	}
	return path
}
