// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/scrollcat/internal/es/errfmt"
)

// SearchPath returns the _search path of the client's index
func (c *Client) SearchPath() string {
	index := strings.Trim(c.index, "/")
	if index == "" {
		return "/_search"
	}
	return "/" + index + "/_search"
}

// Search runs a single search request against path (the client's index when
// empty). An error status is logged and yields an empty result instead of
// an error; only transport and decoding failures are returned.
func (c *Client) Search(ctx context.Context, path string, query map[string]interface{}) (map[string]interface{}, error) {
	if path == "" {
		path = c.SearchPath()
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := c.Post(ctx, path, queryJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	if res.IsError() {
		c.logger.Error().
			Str("path", path).
			Int("status_code", res.StatusCode).
			Str("reason", errfmt.Reason(res.Body)).
			RawJSON("query", compactOrQuote(queryJSON)).
			Str("response", string(res.Body)).
			Msg("Search returned an error status")
		return map[string]interface{}{}, nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(res.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result == nil {
		result = map[string]interface{}{}
	}
	return result, nil
}

// Update posts body to an update endpoint such as
// "/index/_update_by_query" and returns the decoded result.
func (c *Client) Update(ctx context.Context, path string, body map[string]interface{}) (*UpdateResult, error) {
	if path == "" {
		return nil, fmt.Errorf("update path is required")
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal update: %w", err)
	}

	res, err := c.Post(ctx, path, bodyJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to update: %w", err)
	}

	if res.IsError() {
		return nil, errfmt.FormatRequestError("update", statusText(res.StatusCode), res.Body, bodyJSON)
	}

	var result UpdateResult
	if err := json.Unmarshal(res.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode update response: %w", err)
	}

	c.logger.Info().
		Str("path", path).
		Int64("updated", result.Updated).
		Int("failures", len(result.Failures)).
		Msg("Update completed")

	return &result, nil
}

// compactOrQuote returns raw if it is valid JSON, otherwise raw as a JSON
// string, so it can be logged with RawJSON.
func compactOrQuote(raw []byte) []byte {
	if json.Valid(raw) {
		return raw
	}
	quoted, _ := json.Marshal(string(raw))
	return quoted
}
