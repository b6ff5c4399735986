// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package errfmt

import (
	"strings"
	"testing"
)

func TestFormatRequestError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		status  string
		body    string
		request string
		want    []string
	}{
		{
			name:    "update conflict",
			op:      "update",
			status:  "409 Conflict",
			body:    `{"error":{"type":"version_conflict_engine_exception"}}`,
			request: `{"script":{"source":"ctx._source.seen = true"}}`,
			want:    []string{"update failed: 409 Conflict", "version_conflict_engine_exception", "ctx._source.seen"},
		},
		{
			name:    "scroll request is indented",
			op:      "scroll",
			status:  "404 Not Found",
			body:    `{"error":{"type":"search_context_missing_exception"}}`,
			request: `{"scroll":"20m","scroll_id":"tok1"}`,
			want:    []string{"scroll failed: 404 Not Found", "Request:\n{\n  \"scroll\": \"20m\""},
		},
		{
			name:    "invalid request kept raw",
			op:      "update",
			status:  "400 Bad Request",
			body:    `parse_exception`,
			request: `{"script":`,
			want:    []string{"update failed: 400 Bad Request", `{"script":`},
		},
		{
			name:    "empty body",
			op:      "update",
			status:  "502 Bad Gateway",
			body:    ``,
			request: `{}`,
			want:    []string{"update failed: 502 Bad Gateway", "Error: \n"},
		},
		{
			name:   "empty request",
			op:     "update",
			status: "400 Bad Request",
			body:   `error`,
			want:   []string{"Request:\n"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := FormatRequestError(tc.op, tc.status, []byte(tc.body), []byte(tc.request))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			for _, want := range tc.want {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error should contain %q\nGot: %s", want, err)
				}
			}
		})
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "type and reason",
			body: `{"error":{"root_cause":[],"type":"index_not_found_exception","reason":"no such index [docs]"},"status":404}`,
			want: "index_not_found_exception: no such index [docs]",
		},
		{
			name: "reason from caused_by",
			body: `{"error":{"type":"search_phase_execution_exception","caused_by":{"type":"x","reason":"too many scroll contexts"}}}`,
			want: "search_phase_execution_exception: too many scroll contexts",
		},
		{name: "type only", body: `{"error":{"type":"search_context_missing_exception"}}`, want: "search_context_missing_exception"},
		{name: "string error", body: `{"error":"Incorrect HTTP method"}`, want: "Incorrect HTTP method"},
		{name: "no error", body: `{"hits":{}}`, want: ""},
		{name: "not json", body: `<html>bad gateway</html>`, want: ""},
		{name: "empty", body: ``, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reason([]byte(tt.body)); got != tt.want {
				t.Errorf("Reason() = %q, want %q", got, tt.want)
			}
		})
	}
}
