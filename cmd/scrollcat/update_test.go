// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/elastic/scrollcat/internal/config"
	fake "github.com/elastic/scrollcat/internal/testutil"
)

func TestConfirmY(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "lowercase_y", in: "y\n", want: true},
		{name: "uppercase_Y", in: "Y\n", want: true},
		{name: "whitespace_y", in: "  y  \n", want: true},
		{name: "empty", in: "\n", want: false},
		{name: "yes", in: "yes\n", want: false},
		{name: "other", in: "n\n", want: false},
		{name: "eof_no_newline", in: "y", want: true},
		{name: "eof_empty", in: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			ok, err := confirmY(strings.NewReader(tt.in), &out, "PROMPT> ")
			if err != nil {
				t.Fatalf("confirmY returned error: %v", err)
			}
			if ok != tt.want {
				t.Fatalf("confirmY(%q)=%v, want %v", tt.in, ok, tt.want)
			}
			if !strings.HasPrefix(out.String(), "PROMPT> ") {
				t.Fatalf("expected prompt to be written, got %q", out.String())
			}
		})
	}
}

func TestIsLocalESURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want bool
	}{
		{"http://localhost:9200", true},
		{"https://localhost:9200", true},
		{"localhost:9200", true},
		{"127.0.0.1:9200", true},
		{"http://127.0.0.1:9200", true},
		{"http://[::1]:9200", true},
		{"elastic:changeme@localhost:9200", true},

		{"", false},
		{"http://example.com:9200", false},
		{"https://elastic.co", false},
		{"10.0.0.1:9200", false},
		{"http://10.0.0.1:9200", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			if got := isLocalESURL(tt.raw); got != tt.want {
				t.Fatalf("isLocalESURL(%q)=%v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRunUpdate_DeclinedOnRemoteCluster(t *testing.T) {
	updateBody = `{"script":{"source":"ctx._source.seen = true"}}`
	updateBodyFile = ""
	updatePath = ""
	updateForce = false
	t.Cleanup(func() { updateBody = "" })

	cfg := config.Config{ES: config.ESConfig{URL: "https://prod.example.com:9243", Index: "docs"}}
	ctx := config.WithContext(context.Background(), cfg)

	var out bytes.Buffer
	if err := runUpdate(ctx, strings.NewReader("n\n"), true, &out); err != nil {
		t.Fatalf("runUpdate returned error: %v", err)
	}
	if !strings.Contains(out.String(), "/docs/_update_by_query") {
		t.Errorf("prompt should name the default path, got %q", out.String())
	}
	if !strings.HasSuffix(out.String(), "Aborted.\n") {
		t.Errorf("expected abort, got %q", out.String())
	}
}

func TestRunUpdate_RequiresBody(t *testing.T) {
	updateBody, updateBodyFile = "", ""

	cfg := config.Config{ES: config.ESConfig{URL: "http://localhost:9200", Index: "docs"}}
	ctx := config.WithContext(context.Background(), cfg)

	if err := runUpdate(ctx, strings.NewReader(""), true, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error without a body")
	}
}

func TestRunUpdate_NonInteractiveRemote(t *testing.T) {
	body := `{"script":{"source":"ctx._source.seen = true"}}`
	bodyFile := filepath.Join(t.TempDir(), "update.json")
	if err := os.WriteFile(bodyFile, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		bodyFile    string
		stdin       string
		interactive bool
	}{
		{"body from stdin", "-", body + "\n", true},
		{"stdin not a terminal", bodyFile, "y\n", false},
	}

	cfg := config.Config{ES: config.ESConfig{URL: "https://prod.example.com:9200", Index: "docs"}}
	ctx := config.WithContext(context.Background(), cfg)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updateBody, updateBodyFile, updatePath, updateForce = "", tt.bodyFile, "", false
			t.Cleanup(func() { updateBodyFile = "" })

			var out bytes.Buffer
			err := runUpdate(ctx, strings.NewReader(tt.stdin), tt.interactive, &out)
			if !errors.Is(err, errNotInteractive) {
				t.Fatalf("runUpdate error = %v, want %v", err, errNotInteractive)
			}
			if strings.Contains(out.String(), "Aborted.") {
				t.Errorf("must not report an abort as success, got %q", out.String())
			}
		})
	}
}

func TestRunUpdate_ServerError(t *testing.T) {
	srv := fake.NewFakeES()
	t.Cleanup(srv.Close)
	srv.FailNext(fake.RouteUpdate, http.StatusInternalServerError, 1)

	updateBody, updateBodyFile, updatePath, updateForce = `{"script":{"source":"x"}}`, "", "", true
	t.Cleanup(func() { updateBody, updateForce = "", false })

	cfg := config.Config{ES: config.ESConfig{URL: srv.URL(), Index: "docs", RequestTimeout: 5 * time.Second}}
	ctx := config.WithContext(context.Background(), cfg)

	var out bytes.Buffer
	err := runUpdate(ctx, strings.NewReader(""), false, &out)
	if err == nil {
		t.Fatal("expected error from a failing update")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should carry the status, got %v", err)
	}
	if strings.Contains(out.String(), "Updated") {
		t.Errorf("unexpected success output %q", out.String())
	}
}
