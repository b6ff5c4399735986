// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that Elasticsearch is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig(cmd.Context())
		if err != nil {
			return err
		}

		client, err := newClient(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ES.PingTimeout)
		defer cancel()

		if err := client.Ping(ctx); err != nil {
			return fmt.Errorf("cannot connect to Elasticsearch at %s: %w", cfg.ES.URL, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Elasticsearch at %s is reachable\n", cfg.ES.URL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
