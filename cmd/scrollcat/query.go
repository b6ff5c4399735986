// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// defaultQuery matches every document.
const defaultQuery = `{"query":{"match_all":{}}}`

// readBody resolves a JSON object from an inline value or a file path ("-"
// reads stdin). Supplying both is an error; supplying neither yields fallback.
func readBody(inline, path string, stdin io.Reader, fallback string) (map[string]interface{}, error) {
	if inline != "" && path != "" {
		return nil, fmt.Errorf("use either an inline body or a file, not both")
	}

	var data []byte
	switch {
	case inline != "":
		data = []byte(inline)
	case path == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		data = b
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		data = b
	default:
		if fallback == "" {
			return nil, fmt.Errorf("a JSON body is required")
		}
		data = []byte(fallback)
	}

	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("JSON body is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var body map[string]interface{}
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if body == nil {
		return nil, fmt.Errorf("JSON body must be an object")
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid JSON body: trailing data")
	}
	return body, nil
}
