// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package scroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/elastic/scrollcat/internal/es/errfmt"
	"github.com/elastic/scrollcat/internal/metrics"
)

// Operation names used in logs and metrics.
const (
	opSearch = "search"
	opScroll = "scroll"
)

// scrollPath is the continuation endpoint.
const scrollPath = "/_search/scroll"

// Fetcher retrieves complete result sets through the scroll API. It keeps no
// state between calls, so one Fetcher may serve concurrent callers.
type Fetcher struct {
	transport Transport
	opts      Options
	logger    zerolog.Logger
}

// NewFetcher creates a Fetcher posting through t. A zero KeepAlive becomes
// DefaultKeepAlive and a zero Retry becomes DefaultRetryPolicy; use NoRetry
// to disable retries. An empty Index searches every index and a zero
// MaxPages disables the page bound.
func NewFetcher(t Transport, opts Options) *Fetcher {
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = DefaultKeepAlive
	}
	if opts.Retry == (RetryPolicy{}) {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.MaxPages < 0 {
		opts.MaxPages = 0
	}

	return &Fetcher{
		transport: t,
		opts:      opts,
		logger:    log.With().Str("component", "scroll").Str("index", opts.Index).Logger(),
	}
}

// FetchAll runs query as a scroll and returns every page, seed page first.
// The loop ends on the first page without hits. On failure the pages fetched
// so far are dropped and the error matches ErrRetrieval.
func (f *Fetcher) FetchAll(ctx context.Context, query Query) (ResultSet, error) {
	start := time.Now()

	pages, err := f.fetchAll(ctx, query)
	if err != nil {
		outcome := metrics.OutcomeFailed
		if errors.Is(err, ErrPageLimit) {
			outcome = metrics.OutcomePageLimit
		}
		metrics.ScrollsTotal.WithLabelValues(outcome).Inc()
		f.logger.Error().Err(err).Int("pages", len(pages)).Msg("Scroll failed")
		return nil, err
	}

	metrics.ScrollsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	f.logger.Info().
		Int("pages", len(pages)).
		Int("documents", pages.TotalHits()).
		Dur("duration", time.Since(start)).
		Msg("Scroll complete")
	return pages, nil
}

func (f *Fetcher) fetchAll(ctx context.Context, query Query) (ResultSet, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal query: %w", ErrRetrieval, err)
	}

	seed, err := f.search(ctx, body)
	if err != nil {
		return nil, err
	}

	f.logger.Info().
		Int64("total", seed.Total).
		Int("hits", len(seed.Hits)).
		Msg("Scroll opened")

	pages := ResultSet{seed}
	f.record(seed)

	cursor := seed.ScrollID
	last := seed
	for !last.Empty() {
		if f.opts.MaxPages > 0 && len(pages) >= f.opts.MaxPages {
			return pages, fmt.Errorf("%w: %w after %d pages", ErrRetrieval, ErrPageLimit, len(pages))
		}

		page, err := f.next(ctx, cursor)
		if err != nil {
			return pages, err
		}

		cursor = page.ScrollID
		pages = append(pages, page)
		f.record(page)
		last = page

		f.logger.Debug().
			Int("page", len(pages)).
			Int("hits", len(page.Hits)).
			Msg("Scroll page received")
	}

	return pages, nil
}

// search sends the initial request. Only transport failures are retried. A
// non-success status degrades to an empty body, which then fails parsing
// because the cursor is missing.
func (f *Fetcher) search(ctx context.Context, body []byte) (Page, error) {
	var res *Response
	err := f.opts.Retry.Do(ctx, opSearch, func(ctx context.Context) error {
		var err error
		res, err = f.transport.Post(ctx, f.searchPath(), body)
		return err
	})
	if err != nil {
		return Page{}, err
	}

	respBody := res.Body
	if res.IsError() {
		f.logger.Error().
			Int("status_code", res.StatusCode).
			Str("reason", errfmt.Reason(res.Body)).
			Str("response", string(res.Body)).
			Msg("Initial search returned an error status")
		respBody = []byte("{}")
	}

	page, err := ParsePage(respBody)
	if err != nil {
		var perr *ProtocolError
		if errors.As(err, &perr) && res.IsError() {
			perr.StatusCode = res.StatusCode
			perr.Body = res.Body
		}
		return Page{}, fmt.Errorf("%w: seed page: %w", ErrRetrieval, err)
	}
	return page, nil
}

// next fetches the page following cursor. Transport failures, error statuses
// and unparsable bodies all count as a failed attempt.
func (f *Fetcher) next(ctx context.Context, cursor string) (Page, error) {
	body, err := json.Marshal(continuation{
		Scroll:   FormatKeepAlive(f.opts.KeepAlive),
		ScrollID: cursor,
	})
	if err != nil {
		return Page{}, fmt.Errorf("%w: marshal scroll request: %w", ErrRetrieval, err)
	}

	var page Page
	err = f.opts.Retry.Do(ctx, opScroll, func(ctx context.Context) error {
		res, err := f.transport.Post(ctx, scrollPath, body)
		if err != nil {
			return err
		}
		if res.IsError() {
			reason := "scroll request failed"
			if r := errfmt.Reason(res.Body); r != "" {
				reason += ": " + r
			}
			return &ProtocolError{StatusCode: res.StatusCode, Reason: reason, Body: res.Body}
		}
		page, err = ParsePage(res.Body)
		return err
	})
	if err != nil {
		return Page{}, err
	}
	return page, nil
}

func (f *Fetcher) searchPath() string {
	q := url.Values{}
	q.Set("scroll", FormatKeepAlive(f.opts.KeepAlive))

	index := strings.Trim(f.opts.Index, "/")
	if index == "" {
		return "/_search?" + q.Encode()
	}
	return "/" + index + "/_search?" + q.Encode()
}

func (f *Fetcher) record(p Page) {
	metrics.PagesTotal.Inc()
	metrics.DocumentsTotal.Add(float64(len(p.Hits)))
}

// FormatKeepAlive renders d in Elasticsearch time units, using the largest
// unit that represents it exactly ("20m", "90s", "1500ms"). Fractions of a
// millisecond round up.
func FormatKeepAlive(d time.Duration) string {
	switch {
	case d <= 0:
		return FormatKeepAlive(DefaultKeepAlive)
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	case d%time.Second == 0:
		return fmt.Sprintf("%ds", d/time.Second)
	default:
		return fmt.Sprintf("%dms", (d+time.Millisecond-1)/time.Millisecond)
	}
}
