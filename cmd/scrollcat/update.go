// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/elastic/scrollcat/internal/logging"
)

var (
	updateBody     string
	updateBodyFile string
	updatePath     string
	updateForce    bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Post an update request such as _update_by_query",
	Long: `Posts a JSON body to an update endpoint and reports how many documents
changed. Against a non-local cluster you are asked to confirm first.

Examples:
  scrollcat update --body '{"script":{"source":"ctx._source.seen = true"}}'
  scrollcat update --path /docs/_update/42 --body-file patch.json --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdate(cmd.Context(), os.Stdin, term.IsTerminal(int(os.Stdin.Fd())), cmd.OutOrStdout())
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateBody, "body", "", "Request body as JSON")
	updateCmd.Flags().StringVar(&updateBodyFile, "body-file", "", "Read the request body from a file, or - for stdin")
	updateCmd.Flags().StringVar(&updatePath, "path", "", "Request path (default: /<index>/_update_by_query)")
	updateCmd.Flags().BoolVarP(&updateForce, "force", "f", false, "Skip confirmation prompt")
	rootCmd.AddCommand(updateCmd)
}

// errNotInteractive is returned when a confirmation is required but stdin
// cannot answer it.
var errNotInteractive = errors.New("stdin is not interactive; pass --force to update a non-local cluster")

// runUpdate posts the update. interactive reports whether in is a terminal
// that can answer the confirmation prompt.
func runUpdate(ctx context.Context, in io.Reader, interactive bool, out io.Writer) error {
	cfg, err := loadedConfig(ctx)
	if err != nil {
		return err
	}

	body, err := readBody(updateBody, updateBodyFile, in, "")
	if err != nil {
		return err
	}

	path := updatePath
	if path == "" {
		path = "/" + strings.Trim(cfg.ES.Index, "/") + "/_update_by_query"
	}

	if !updateForce && !isLocalESURL(cfg.ES.URL) {
		if !interactive || updateBodyFile == "-" {
			return errNotInteractive
		}
		prompt := fmt.Sprintf("This will modify documents on %s (%s).\nType 'y' to continue: ", cfg.ES.URL, path)
		ok, err := confirmY(in, out, prompt)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	result, err := client.Update(ctx, path, body)
	if err != nil {
		logger := logging.NewLogger("cli")
		logger.Error().Err(err).Str("path", path).Msg("Update failed")
		return err
	}

	fmt.Fprintf(out, "Updated %d documents in %dms", result.Updated, result.Took)
	if n := len(result.Failures); n > 0 {
		fmt.Fprintf(out, " (%d failures)", n)
	}
	fmt.Fprintln(out)
	return nil
}

// confirmY accepts only a single 'y' or 'Y'. Anything else, including EOF
// and "yes", declines.
func confirmY(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	line = strings.TrimSpace(line)
	return line == "y" || line == "Y", nil
}

// isLocalESURL reports whether raw points at localhost or a loopback IP.
// Both "host:port" and full URLs are accepted.
func isLocalESURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}

	var host string
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return false
		}
		host = u.Hostname()
	} else {
		// url.Parse reads "host:port" as scheme:opaque.
		hostport := strings.SplitN(raw, "/", 2)[0]
		if _, after, ok := strings.Cut(hostport, "@"); ok {
			hostport = after
		}
		host = hostport
		if h, _, err := net.SplitHostPort(hostport); err == nil {
			host = h
		}
		host = strings.Trim(host, "[]")
	}

	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
