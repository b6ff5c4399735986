// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package scroll

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/elastic/scrollcat/internal/metrics"
)

// RetryPolicy bounds how often a failed request is repeated. Attempts follow
// each other immediately; there is no backoff.
type RetryPolicy struct {
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int
}

// NoRetry runs every request once. The zero RetryPolicy is not NoRetry: a
// Fetcher replaces it with DefaultRetryPolicy.
var NoRetry = RetryPolicy{MaxRetries: -1}

// DefaultRetryPolicy retries a failed request exactly once.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 1}
}

// RetryPolicyFor maps a configured retry count onto a policy. Zero retries
// yields NoRetry.
func RetryPolicyFor(maxRetries int) RetryPolicy {
	if maxRetries <= 0 {
		return NoRetry
	}
	return RetryPolicy{MaxRetries: maxRetries}
}

// Attempts returns the total number of times fn may run.
func (p RetryPolicy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Do runs fn until it succeeds or the attempts are used up. The error from
// the last attempt is returned wrapped in ErrRetrieval. Do stops early when
// ctx is done.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := p.Attempts()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return fmt.Errorf("%w: %s cancelled after %d attempts: %w", ErrRetrieval, op, attempt-1, lastErr)
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("op", op).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if attempt < attempts {
			metrics.RetriesTotal.WithLabelValues(op).Inc()
			log.Warn().
				Err(err).
				Str("op", op).
				Int("attempt", attempt).
				Msg("Request failed, retrying")
		}
	}

	metrics.RetryExhaustedTotal.WithLabelValues(op).Inc()
	log.Error().
		Err(lastErr).
		Str("op", op).
		Int("max_attempts", attempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w: %s failed after %d attempts: %w", ErrRetrieval, op, attempts, lastErr)
}
