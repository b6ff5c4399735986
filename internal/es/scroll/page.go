// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package scroll

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page is one search or scroll response.
type Page struct {
	// Raw is the response body as received.
	Raw json.RawMessage

	// ScrollID is the cursor for the next request.
	ScrollID string

	// Total is the engine's hit count for the whole query, or -1 when the
	// response did not report one. It is advisory only.
	Total int64

	// Hits holds the documents of this page, undecoded.
	Hits []json.RawMessage
}

// Empty reports whether the page carries no documents, which ends a scroll.
func (p Page) Empty() bool {
	return len(p.Hits) == 0
}

// ParsePage decodes a search or scroll response body. It fails with a
// *ProtocolError when the body is not JSON or lacks _scroll_id or hits.hits.
func ParsePage(body []byte) (Page, error) {
	var response struct {
		ScrollID *string `json:"_scroll_id"`
		Hits     *struct {
			Total json.RawMessage   `json:"total"`
			Hits  []json.RawMessage `json:"hits"`
		} `json:"hits"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return Page{}, &ProtocolError{Reason: fmt.Sprintf("decode response: %v", err), Body: body}
	}
	if response.ScrollID == nil || *response.ScrollID == "" {
		return Page{}, &ProtocolError{Reason: "missing _scroll_id", Body: body}
	}
	if response.Hits == nil || response.Hits.Hits == nil {
		return Page{}, &ProtocolError{Reason: "missing hits.hits", Body: body}
	}

	return Page{
		Raw:      append(json.RawMessage(nil), body...),
		ScrollID: *response.ScrollID,
		Total:    parseTotal(response.Hits.Total),
		Hits:     response.Hits.Hits,
	}, nil
}

// parseTotal accepts both the legacy numeric form of hits.total and the
// {"value": N, "relation": "eq"} object returned since 7.0.
func parseTotal(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return -1
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}

	var obj struct {
		Value *int64 `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Value != nil {
		return *obj.Value
	}
	return -1
}
