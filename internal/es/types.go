// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog"
)

// Client wraps the Elasticsearch client with scrollcat-specific functionality
type Client struct {
	es             *elasticsearch.Client
	index          string
	requestTimeout time.Duration
	logger         zerolog.Logger
}

// Options configures a Client
type Options struct {
	Addresses      []string      // Elasticsearch base URIs
	Index          string        // Index used when no path is given
	APIKey         string        // API key (takes precedence over basic auth)
	Username       string        // Basic auth username
	Password       string        // Basic auth password
	RequestTimeout time.Duration // Per-request timeout; 0 means DefaultRequestTimeout
}

// DefaultRequestTimeout bounds a single request.
const DefaultRequestTimeout = 10000 * time.Second

// UpdateResult is the relevant part of an _update_by_query response
type UpdateResult struct {
	Took     int64         `json:"took"`
	Updated  int64         `json:"updated"`
	Failures []interface{} `json:"failures"`
}
