// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

// Package scroll drives the Elasticsearch scroll API: it opens a scroll
// context with a search, follows the cursor page by page and collects every
// page until the engine returns an empty one.
package scroll

import (
	"context"
	"encoding/json"
	"time"
)

// Query is a search request body. It is passed to the engine verbatim.
type Query map[string]interface{}

// ResultSet holds every page of a scroll in retrieval order, seed page first.
type ResultSet []Page

// TotalHits returns the number of documents across all pages.
func (rs ResultSet) TotalHits() int {
	n := 0
	for _, p := range rs {
		n += len(p.Hits)
	}
	return n
}

// Response is the raw outcome of a single HTTP exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsError reports whether the status code is outside the 2xx range.
func (r *Response) IsError() bool {
	return r.StatusCode < 200 || r.StatusCode > 299
}

// Transport posts a JSON body to a path relative to the engine's base URI.
// A returned error means the exchange itself failed (connection refused,
// timeout, reset); HTTP error statuses come back as a Response.
type Transport interface {
	Post(ctx context.Context, path string, body []byte) (*Response, error)
}

// Options configures a Fetcher.
type Options struct {
	// Index is the index or pattern searched by the initial request. Empty
	// searches every index.
	Index string

	// KeepAlive is how long the engine retains the scroll context between
	// requests.
	KeepAlive time.Duration

	// MaxPages stops a scroll that never drains. Zero disables the bound.
	MaxPages int

	// Retry governs how often a failed request is repeated. The zero value
	// means DefaultRetryPolicy; NoRetry disables retries.
	Retry RetryPolicy
}

// Default option values.
const (
	DefaultIndex     = "mlspipeline_read"
	DefaultKeepAlive = 20 * time.Minute
	DefaultMaxPages  = 100000
)

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Index:     DefaultIndex,
		KeepAlive: DefaultKeepAlive,
		MaxPages:  DefaultMaxPages,
		Retry:     DefaultRetryPolicy(),
	}
}

// continuation is the body of a _search/scroll request.
type continuation struct {
	Scroll   string `json:"scroll"`
	ScrollID string `json:"scroll_id"`
}

// MarshalJSON writes the page exactly as the engine returned it.
func (p Page) MarshalJSON() ([]byte, error) {
	if len(p.Raw) == 0 {
		return []byte("{}"), nil
	}
	return p.Raw, nil
}

var _ json.Marshaler = Page{}
