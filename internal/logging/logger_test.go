// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be info, got %s", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("Expected default pretty to be false")
	}
	if cfg.Output == nil {
		t.Error("Expected default output to be set")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		logFn     func(zerolog.Logger)
		wantEmpty bool
		contains  string
	}{
		{
			name:     "info_level",
			level:    LevelInfo,
			logFn:    func(l zerolog.Logger) { l.Info().Msg("test info message") },
			contains: "test info message",
		},
		{
			name:      "debug_suppressed_at_info",
			level:     LevelInfo,
			logFn:     func(l zerolog.Logger) { l.Debug().Msg("hidden") },
			wantEmpty: true,
		},
		{
			name:     "debug_level",
			level:    LevelDebug,
			logFn:    func(l zerolog.Logger) { l.Debug().Msg("test debug message") },
			contains: "test debug message",
		},
		{
			name:      "warn_suppressed_at_error",
			level:     LevelError,
			logFn:     func(l zerolog.Logger) { l.Warn().Msg("hidden") },
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Setup(Config{Level: tt.level, Output: &buf})
			tt.logFn(logger)

			out := buf.String()
			if tt.wantEmpty {
				if out != "" {
					t.Errorf("Expected no output, got %q", out)
				}
				return
			}
			if !strings.Contains(out, tt.contains) {
				t.Errorf("Expected output to contain %q, got %q", tt.contains, out)
			}
		})
	}
}

func TestSetup_Forward(t *testing.T) {
	var out, forwarded bytes.Buffer
	Setup(Config{Level: LevelInfo, Pretty: true, Output: &out, Forward: &forwarded})

	log.Info().Str("index", "docs").Msg("forwarded line")

	var line map[string]interface{}
	if err := json.Unmarshal(forwarded.Bytes(), &line); err != nil {
		t.Fatalf("forwarded output is not JSON: %v (%q)", err, forwarded.String())
	}
	if line["message"] != "forwarded line" || line["index"] != "docs" {
		t.Errorf("unexpected forwarded line: %v", line)
	}
	if !strings.Contains(out.String(), "forwarded line") {
		t.Errorf("console output missing message: %q", out.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   Level
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range []string{"debug", "info", "warn", "warning", "ERROR"} {
		if !ValidLevel(l) {
			t.Errorf("ValidLevel(%q) = false", l)
		}
	}
	for _, l := range []string{"", "trace", "verbose"} {
		if ValidLevel(l) {
			t.Errorf("ValidLevel(%q) = true", l)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	Setup(Config{Level: LevelInfo, Output: &buf})

	logger := NewLogger("scroll")
	logger.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"component":"scroll"`) {
		t.Errorf("Expected component field, got %q", buf.String())
	}
}
