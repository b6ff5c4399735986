// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

//go:build tools

package tools

import (
	// Tool dependencies - kept in go.mod, not compiled into scrollcat
	_ "go.elastic.co/go-licence-detector"
)
