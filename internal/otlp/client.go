// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

// Package otlp forwards scrollcat's own structured log lines to an OTLP/HTTP
// endpoint so scroll runs show up next to the cluster's other telemetry.
package otlp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Client sends log records to an OTLP endpoint
type Client struct {
	provider *sdklog.LoggerProvider
	logger   log.Logger
	endpoint string
}

// Config holds OTLP client configuration
type Config struct {
	Endpoint    string // OTLP HTTP endpoint (default: localhost:4318)
	ServiceName string // Resource service.name (default: scrollcat)
	Insecure    bool   // Use HTTP instead of HTTPS
}

// DefaultEndpoint is used when Config.Endpoint is empty
const DefaultEndpoint = "localhost:4318"

// New creates a new OTLP client
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "scrollcat"
	}

	ctx := context.Background()

	opts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}

	exporter, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(cfg.ServiceName))

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)

	return &Client{
		provider: provider,
		logger:   provider.Logger("scrollcat"),
		endpoint: cfg.Endpoint,
	}, nil
}

// Endpoint returns the configured endpoint
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Write implements io.Writer for zerolog: each call carries one JSON log
// line, which is converted to an OTel log record and emitted. Lines that are
// not JSON objects are sent as plain bodies.
func (c *Client) Write(p []byte) (int, error) {
	c.logger.Emit(context.Background(), recordFromLine(p, time.Now()))
	return len(p), nil
}

// Close flushes pending records and shuts down the OTLP client
func (c *Client) Close(ctx context.Context) error {
	return c.provider.Shutdown(ctx)
}

// recordFromLine converts a zerolog JSON line into a log record
func recordFromLine(line []byte, observed time.Time) log.Record {
	var record log.Record
	record.SetObservedTimestamp(observed)

	var fields map[string]interface{}
	if err := json.Unmarshal(line, &fields); err != nil {
		record.SetTimestamp(observed)
		record.SetSeverity(log.SeverityInfo)
		record.SetBody(log.StringValue(string(line)))
		return record
	}

	level, _ := fields["level"].(string)
	record.SetSeverity(levelToSeverity(level))
	record.SetSeverityText(level)

	record.SetTimestamp(observed)
	if ts, ok := fields["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			record.SetTimestamp(parsed)
		}
	}

	msg, _ := fields["message"].(string)
	record.SetBody(log.StringValue(msg))

	for k, v := range fields {
		switch k {
		case "level", "time", "message":
			continue
		}
		switch val := v.(type) {
		case string:
			record.AddAttributes(log.String(k, val))
		case float64:
			if val == float64(int64(val)) {
				record.AddAttributes(log.Int64(k, int64(val)))
			} else {
				record.AddAttributes(log.Float64(k, val))
			}
		case bool:
			record.AddAttributes(log.Bool(k, val))
		default:
			if b, err := json.Marshal(val); err == nil {
				record.AddAttributes(log.String(k, string(b)))
			}
		}
	}

	return record
}

// levelToSeverity converts a zerolog level name to OTel severity
func levelToSeverity(level string) log.Severity {
	switch level {
	case "trace":
		return log.SeverityTrace
	case "debug":
		return log.SeverityDebug
	case "info":
		return log.SeverityInfo
	case "warn":
		return log.SeverityWarn
	case "error":
		return log.SeverityError
	case "fatal", "panic":
		return log.SeverityFatal
	default:
		return log.SeverityInfo
	}
}
