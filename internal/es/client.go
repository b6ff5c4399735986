// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog/log"

	"github.com/elastic/scrollcat/internal/es/scroll"
	"github.com/elastic/scrollcat/internal/metrics"
)

// New creates a new Elasticsearch client
func New(opts Options) (*Client, error) {
	if len(opts.Addresses) == 0 {
		return nil, fmt.Errorf("at least one Elasticsearch address is required")
	}

	cfg := elasticsearch.Config{
		Addresses: opts.Addresses,
		// scroll.RetryPolicy is the only retry layer.
		DisableRetry: true,
	}
	if opts.APIKey != "" {
		cfg.APIKey = opts.APIKey
	} else if opts.Username != "" {
		cfg.Username = opts.Username
		cfg.Password = opts.Password
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &Client{
		es:             es,
		index:          opts.Index,
		requestTimeout: timeout,
		logger:         log.With().Str("component", "es-client").Logger(),
	}, nil
}

// NewDefault creates a client with default localhost configuration
func NewDefault() (*Client, error) {
	return New(Options{
		Addresses: []string{"http://localhost:9200"},
		Index:     scroll.DefaultIndex,
	})
}

// SetIndex changes the index pattern
func (c *Client) SetIndex(index string) {
	c.index = index
}

// GetIndex returns the current index pattern
func (c *Client) GetIndex() string {
	return c.index
}

// RequestTimeout returns the per-request timeout
func (c *Client) RequestTimeout() time.Duration {
	return c.requestTimeout
}

// Ping checks if Elasticsearch is reachable
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to ping ES: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("ES ping failed: %s", res.Status())
	}

	return nil
}

// Post sends body to path and returns the status and full response body.
// Implements scroll.Transport. Transport failures are returned as errors;
// HTTP error statuses are not.
func (c *Client) Post(ctx context.Context, path string, body []byte) (*scroll.Response, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	op := operationFor(path)
	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.es.Transport.Perform(httpReq)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(op, metrics.StatusLabel(0)).Inc()
		return nil, fmt.Errorf("failed to execute %s request: %w", op, err)
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(op, metrics.StatusLabel(0)).Inc()
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}
	metrics.RequestsTotal.WithLabelValues(op, metrics.StatusLabel(res.StatusCode)).Inc()

	c.logger.Debug().
		Str("op", op).
		Str("path", path).
		Int("status_code", res.StatusCode).
		Int("bytes", len(respBody)).
		Dur("duration", time.Since(start)).
		Msg("Request completed")

	return &scroll.Response{StatusCode: res.StatusCode, Body: respBody}, nil
}

// operationFor names the API a path belongs to, for logs and metrics.
func operationFor(path string) string {
	p := path
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	switch {
	case strings.HasSuffix(p, "/_search/scroll"):
		return "scroll"
	case strings.HasSuffix(p, "/_search"):
		return "search"
	case strings.HasSuffix(p, "/_update_by_query"), strings.Contains(p, "/_update/"):
		return "update"
	default:
		return "post"
	}
}

// statusText renders a status code the way http.Response.Status does.
func statusText(code int) string {
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}
