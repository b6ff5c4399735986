// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

// Package output renders a scroll ResultSet to a file or stdout.
package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/elastic/scrollcat/internal/es/scroll"
)

// Format selects how a ResultSet is written.
type Format string

const (
	// FormatJSON writes one JSON array holding every page verbatim.
	FormatJSON Format = "json"
	// FormatNDJSON writes one page per line.
	FormatNDJSON Format = "ndjson"
	// FormatHits writes one hit per line, dropping page envelopes.
	FormatHits Format = "hits"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatJSON, FormatNDJSON, FormatHits}

// ParseFormat validates a format name. Empty means FormatJSON.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatJSON, nil
	}
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want json, ndjson or hits)", s)
}

// Open returns the destination for path. An empty path or "-" is stdout,
// whose Close is a no-op.
func Open(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Write renders rs to w in the given format.
func Write(w io.Writer, rs scroll.ResultSet, format Format) error {
	bw := bufio.NewWriter(w)

	switch format {
	case FormatJSON, "":
		if err := writeArray(bw, rs); err != nil {
			return err
		}
	case FormatNDJSON:
		for _, p := range rs {
			if err := writeLine(bw, p.Raw); err != nil {
				return err
			}
		}
	case FormatHits:
		for _, p := range rs {
			for _, hit := range p.Hits {
				if err := writeLine(bw, hit); err != nil {
					return err
				}
			}
		}
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return bw.Flush()
}

func writeArray(w *bufio.Writer, rs scroll.ResultSet) error {
	if rs == nil {
		rs = scroll.ResultSet{}
	}
	data, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("marshal result set: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// writeLine compacts raw onto a single line.
func writeLine(w *bufio.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return fmt.Errorf("compact document: %w", err)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
