// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

// Package metrics holds the Prometheus collectors shared by the Elasticsearch
// client and the scroll fetcher.
//
// Collectors:
//   - scrollcat_requests_total{op, status} (Counter): HTTP exchanges by operation and outcome
//   - scrollcat_request_duration_seconds{op} (Histogram): HTTP exchange duration
//   - scrollcat_retries_total{op} (Counter): repeated attempts
//   - scrollcat_retry_exhausted_total{op} (Counter): operations that failed after every attempt
//   - scrollcat_pages_total (Counter): pages appended to result sets
//   - scrollcat_documents_total (Counter): documents contained in those pages
//   - scrollcat_scrolls_total{outcome} (Counter): completed FetchAll calls by outcome
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry collects every scrollcat metric. It is separate from the default
// registerer so that a textfile dump contains only our series.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Outcome labels for ScrollsTotal.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomePageLimit = "page_limit"
)

var (
	RequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "scrollcat_requests_total",
		Help: "HTTP requests to Elasticsearch by operation and status",
	}, []string{"op", "status"})

	RequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scrollcat_request_duration_seconds",
		Help:    "HTTP request duration in seconds by operation",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"op"})

	RetriesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "scrollcat_retries_total",
		Help: "Retry attempts by operation",
	}, []string{"op"})

	RetryExhaustedTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "scrollcat_retry_exhausted_total",
		Help: "Operations that failed on every attempt",
	}, []string{"op"})

	PagesTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "scrollcat_pages_total",
		Help: "Pages appended to scroll result sets",
	})

	DocumentsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "scrollcat_documents_total",
		Help: "Documents contained in retrieved pages",
	})

	ScrollsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "scrollcat_scrolls_total",
		Help: "Completed scroll operations by outcome",
	}, []string{"outcome"})
)

// StatusLabel turns an HTTP status code into a requests_total label. Zero
// means the exchange never produced a response.
func StatusLabel(code int) string {
	if code == 0 {
		return "transport_error"
	}
	return fmt.Sprintf("%d", code)
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
