// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package scroll

import (
	"errors"
	"fmt"
)

var (
	// ErrRetrieval is returned by FetchAll whenever the scroll could not be
	// completed. No pages are returned alongside it.
	ErrRetrieval = errors.New("scroll retrieval failed")

	// ErrMalformedPage marks a response that lacks the fields needed to
	// continue the scroll.
	ErrMalformedPage = errors.New("malformed page")

	// ErrPageLimit is returned when MaxPages is reached while hits are still
	// being returned.
	ErrPageLimit = errors.New("page limit reached")
)

// ProtocolError describes a response that the engine sent but that cannot be
// used as a scroll page.
type ProtocolError struct {
	StatusCode int
	Reason     string
	Body       []byte
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", ErrMalformedPage, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedPage, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedPage.
func (e *ProtocolError) Unwrap() error {
	return ErrMalformedPage
}
