// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	searchQuery     string
	searchQueryFile string
	searchPath      string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a single search and print the response",
	Long: `Runs one search request without scrolling and prints the raw response.

An error status from Elasticsearch is logged and an empty object is printed.

Examples:
  scrollcat search --query '{"size":1}'
  scrollcat search --path /logs-*/_search --query-file query.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd.Context())
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Search body as JSON (default: match_all)")
	searchCmd.Flags().StringVar(&searchQueryFile, "query-file", "", "Read the search body from a file, or - for stdin")
	searchCmd.Flags().StringVar(&searchPath, "path", "", "Request path (default: /<index>/_search)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(ctx context.Context) error {
	cfg, err := loadedConfig(ctx)
	if err != nil {
		return err
	}

	query, err := readBody(searchQuery, searchQueryFile, os.Stdin, defaultQuery)
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	result, err := client.Search(ctx, searchPath, query)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
