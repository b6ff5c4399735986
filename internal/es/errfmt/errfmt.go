// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package errfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FormatRequestError builds a detailed error including the operation, response
// status, body, and pretty request. It best-effort indents the provided request
// JSON; on failure it still includes the raw request.
func FormatRequestError(op, status string, body []byte, requestJSON []byte) error {
	var pretty bytes.Buffer
	_ = json.Indent(&pretty, requestJSON, "", "  ")
	if pretty.Len() == 0 {
		pretty.Write(requestJSON)
	}
	return fmt.Errorf("%s failed: %s\nError: %s\n\nRequest:\n%s", op, status, string(body), pretty.String())
}

// Reason extracts "type: reason" from an Elasticsearch error body such as
// {"error":{"type":"index_not_found_exception","reason":"no such index"}}.
// A plain string error is returned as-is. Returns "" when body carries no
// recognisable error.
func Reason(body []byte) string {
	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}

	switch e := doc["error"].(type) {
	case string:
		return e
	case map[string]interface{}:
		typ := nestedString(e, "type")
		reason := nestedString(e, "reason")
		if reason == "" {
			reason = nestedString(e, "caused_by", "reason")
		}
		switch {
		case typ != "" && reason != "":
			return typ + ": " + reason
		case reason != "":
			return reason
		default:
			return typ
		}
	}
	return ""
}

// nestedString walks parts through nested objects and returns the string at
// the end, or "".
func nestedString(data map[string]interface{}, parts ...string) string {
	current := interface{}(data)
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		if current, ok = m[part]; !ok {
			return ""
		}
	}
	s, _ := current.(string)
	return s
}
