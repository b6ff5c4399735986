// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package scroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	path string
	body []byte
}

type step struct {
	res *Response
	err error
}

// scriptedTransport replays steps in order and records every call.
type scriptedTransport struct {
	steps []step
	calls []call
}

func (s *scriptedTransport) Post(_ context.Context, path string, body []byte) (*Response, error) {
	s.calls = append(s.calls, call{path: path, body: append([]byte(nil), body...)})
	if len(s.steps) == 0 {
		return nil, errors.New("unexpected request")
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	return st.res, st.err
}

func (s *scriptedTransport) scrollCalls() []call {
	var out []call
	for _, c := range s.calls {
		if c.path == scrollPath {
			out = append(out, c)
		}
	}
	return out
}

func pageBody(scrollID string, total, hits int) []byte {
	docs := make([]string, hits)
	for i := range docs {
		docs[i] = fmt.Sprintf(`{"_id":"%s-%d","_source":{"n":%d}}`, scrollID, i, i)
	}
	return []byte(fmt.Sprintf(`{"_scroll_id":%q,"took":1,"hits":{"total":{"value":%d,"relation":"eq"},"hits":[%s]}}`,
		scrollID, total, strings.Join(docs, ",")))
}

func ok(body []byte) step {
	return step{res: &Response{StatusCode: 200, Body: body}}
}

func status(code int, body string) step {
	return step{res: &Response{StatusCode: code, Body: []byte(body)}}
}

func fail() step {
	return step{err: errors.New("connection refused")}
}

func newTestFetcher(t *scriptedTransport) *Fetcher {
	opts := DefaultOptions()
	opts.Index = "docs"
	return NewFetcher(t, opts)
}

func matchAll() Query {
	return Query{"query": map[string]interface{}{"match_all": map[string]interface{}{}}}
}

func TestFetchAll_EmptySeedPage(t *testing.T) {
	tr := &scriptedTransport{steps: []step{ok(pageBody("tok0", 0, 0))}}

	rs, err := newTestFetcher(tr).FetchAll(context.Background(), matchAll())
	require.NoError(t, err)

	assert.Len(t, rs, 1)
	assert.Empty(t, tr.scrollCalls(), "no continuation request expected")
	assert.Equal(t, "/docs/_search?scroll=20m", tr.calls[0].path)
}

func TestFetchAll_PagesInOrder(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7} {
		n := n
		t.Run(fmt.Sprintf("%d_pages", n), func(t *testing.T) {
			steps := make([]step, n)
			for i := 0; i < n; i++ {
				hits := 2
				if i == n-1 {
					hits = 0
				}
				steps[i] = ok(pageBody(fmt.Sprintf("tok%d", i), 2*(n-1), hits))
			}
			tr := &scriptedTransport{steps: steps}

			rs, err := newTestFetcher(tr).FetchAll(context.Background(), matchAll())
			require.NoError(t, err)
			require.Len(t, rs, n)

			for i, p := range rs {
				assert.Equal(t, fmt.Sprintf("tok%d", i), p.ScrollID)
			}

			scrolls := tr.scrollCalls()
			require.Len(t, scrolls, n-1)
			for i, c := range scrolls {
				var req continuation
				require.NoError(t, json.Unmarshal(c.body, &req))
				assert.Equal(t, "20m", req.Scroll)
				assert.Equal(t, fmt.Sprintf("tok%d", i), req.ScrollID, "continuation %d must carry the previous cursor", i)
			}
		})
	}
}

func TestFetchAll_CursorAlwaysLatest(t *testing.T) {
	tr := &scriptedTransport{steps: []step{
		ok(pageBody("seed", 3, 1)),
		ok(pageBody("a", 3, 1)),
		ok(pageBody("b", 3, 1)),
		ok(pageBody("b", 3, 0)),
	}}

	_, err := newTestFetcher(tr).FetchAll(context.Background(), matchAll())
	require.NoError(t, err)

	var got []string
	for _, c := range tr.scrollCalls() {
		var req continuation
		require.NoError(t, json.Unmarshal(c.body, &req))
		got = append(got, req.ScrollID)
	}
	assert.Equal(t, []string{"seed", "a", "b"}, got)
}

func TestFetchAll_MatchAllScenario(t *testing.T) {
	tr := &scriptedTransport{steps: []step{
		ok(pageBody("tok1", 3, 2)),
		ok(pageBody("tok2", 3, 1)),
		ok(pageBody("tok2", 3, 0)),
	}}

	rs, err := newTestFetcher(tr).FetchAll(context.Background(), matchAll())
	require.NoError(t, err)

	assert.Len(t, rs, 3)
	assert.Equal(t, 3, rs.TotalHits())
	assert.Equal(t, int64(3), rs[0].Total)
	assert.JSONEq(t, `{"query":{"match_all":{}}}`, string(tr.calls[0].body))
}

func TestFetchAll_InitialRetry(t *testing.T) {
	t.Run("fails once then succeeds", func(t *testing.T) {
		tr := &scriptedTransport{steps: []step{
			fail(),
			ok(pageBody("tok1", 1, 1)),
			ok(pageBody("tok2", 1, 0)),
		}}

		rs, err := newTestFetcher(tr).FetchAll(context.Background(), matchAll())
		require.NoError(t, err)
		assert.Len(t, rs, 2)
		require.GreaterOrEqual(t, len(tr.calls), 2)
		assert.Equal(t, tr.calls[0].path, tr.calls[1].path)
		assert.Equal(t, tr.calls[0].body, tr.calls[1].body, "retry must resend the identical query")
	})

	t.Run("fails twice", func(t *testing.T) {
		tr := &scriptedTransport{steps: []step{fail(), fail(), ok(pageBody("tok1", 1, 0))}}

		rs, err := newTestFetcher(tr).FetchAll(context.Background(), matchAll())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRetrieval)
		assert.Nil(t, rs)
		assert.Len(t, tr.calls, 2)
	})
}

func TestFetchAll_ContinuationRetry(t *testing.T) {
	t.Run("transport failure once", func(t *testing.T) {
		tr := &scriptedTransport{steps: []step{
			ok(pageBody("tok1", 2, 1)),
			fail(),
			ok(pageBody("tok2", 2, 1)),
			ok(pageBody("tok3", 2, 0)),
		}}

		rs, err := newTestFetcher(tr).FetchAll(context.Background(), matchAll())
		require.NoError(t, err)
		assert.Len(t, rs, 3)

		scrolls := tr.scrollCalls()
		require.Len(t, scrolls, 3)
		assert.Equal(t, scrolls[0].body, scrolls[1].body)
	})

	t.Run("error status twice discards pages", func(t *testing.T) {
		tr := &scriptedTransport{steps: []step{
			ok(pageBody("tok1", 4, 2)),
			ok(pageBody("tok2", 4, 2)),
			status(500, `{"error":"boom"}`),
			status(500, `{"error":"boom"}`),
		}}

		rs, err := newTestFetcher(tr).FetchAll(context.Background(), matchAll())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRetrieval)
		assert.ErrorIs(t, err, ErrMalformedPage)
		assert.Nil(t, rs)
	})

	t.Run("error reason is reported", func(t *testing.T) {
		expired := `{"error":{"type":"search_context_missing_exception","reason":"No search context found for id [7]"},"status":404}`
		tr := &scriptedTransport{steps: []step{
			ok(pageBody("tok1", 2, 1)),
			status(404, expired),
			status(404, expired),
		}}

		_, err := newTestFetcher(tr).FetchAll(context.Background(), matchAll())
		require.Error(t, err)

		var perr *ProtocolError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, 404, perr.StatusCode)
		assert.Equal(t, "scroll request failed: search_context_missing_exception: No search context found for id [7]", perr.Reason)
	})

	t.Run("missing cursor counts as failure", func(t *testing.T) {
		tr := &scriptedTransport{steps: []step{
			ok(pageBody("tok1", 2, 1)),
			ok([]byte(`{"hits":{"hits":[]}}`)),
			ok(pageBody("tok2", 2, 0)),
		}}

		rs, err := newTestFetcher(tr).FetchAll(context.Background(), matchAll())
		require.NoError(t, err)
		assert.Len(t, rs, 2)
	})
}

func TestFetchAll_MalformedSeed(t *testing.T) {
	tests := []struct {
		name   string
		step   step
		status int
	}{
		{name: "missing scroll id", step: ok([]byte(`{"hits":{"total":1,"hits":[]}}`))},
		{name: "missing hits", step: ok([]byte(`{"_scroll_id":"tok"}`))},
		{name: "not json", step: ok([]byte(`<html>`))},
		{name: "error status degrades to empty page", step: status(500, `{"error":"boom"}`), status: 500},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tr := &scriptedTransport{steps: []step{tc.step}}

			rs, err := newTestFetcher(tr).FetchAll(context.Background(), matchAll())
			require.Error(t, err)
			assert.Nil(t, rs)
			assert.ErrorIs(t, err, ErrRetrieval)
			assert.ErrorIs(t, err, ErrMalformedPage)
			assert.Len(t, tr.calls, 1, "malformed responses on the seed request are not retried")

			var perr *ProtocolError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tc.status, perr.StatusCode)
		})
	}
}

func TestFetchAll_PageLimit(t *testing.T) {
	steps := make([]step, 10)
	for i := range steps {
		steps[i] = ok(pageBody("same", 100, 5))
	}
	tr := &scriptedTransport{steps: steps}

	opts := DefaultOptions()
	opts.MaxPages = 3
	rs, err := NewFetcher(tr, opts).FetchAll(context.Background(), matchAll())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPageLimit)
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.Nil(t, rs)
	assert.Len(t, tr.calls, 3)
}

func TestFetchAll_NoPageLimit(t *testing.T) {
	steps := make([]step, 0, 12)
	for i := 0; i < 11; i++ {
		steps = append(steps, ok(pageBody("same", 100, 1)))
	}
	steps = append(steps, ok(pageBody("same", 100, 0)))
	tr := &scriptedTransport{steps: steps}

	opts := DefaultOptions()
	opts.MaxPages = 0
	rs, err := NewFetcher(tr, opts).FetchAll(context.Background(), matchAll())

	require.NoError(t, err)
	assert.Len(t, rs, 12)
}

func TestFetchAll_CancelledContext(t *testing.T) {
	tr := &scriptedTransport{steps: []step{ok(pageBody("tok1", 1, 0))}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rs, err := newTestFetcher(tr).FetchAll(ctx, matchAll())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, rs)
	assert.Empty(t, tr.calls)
}

func TestNewFetcher_RetryDefaults(t *testing.T) {
	tests := []struct {
		name      string
		retry     RetryPolicy
		wantCalls int
		wantErr   bool
	}{
		{name: "zero value retries once", retry: RetryPolicy{}, wantCalls: 2},
		{name: "no retry", retry: NoRetry, wantCalls: 1, wantErr: true},
		{name: "configured zero retries", retry: RetryPolicyFor(0), wantCalls: 1, wantErr: true},
		{name: "configured two retries", retry: RetryPolicyFor(2), wantCalls: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := &scriptedTransport{steps: []step{fail(), ok(pageBody("tok0", 0, 0))}}

			rs, err := NewFetcher(tr, Options{Index: "docs", Retry: tc.retry}).FetchAll(context.Background(), matchAll())
			assert.Len(t, tr.calls, tc.wantCalls)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrRetrieval)
				assert.Nil(t, rs)
				return
			}
			require.NoError(t, err)
			assert.Len(t, rs, 1)
		})
	}
}

func TestSearchPath(t *testing.T) {
	tests := []struct {
		index     string
		keepAlive time.Duration
		want      string
	}{
		{"docs", 20 * time.Minute, "/docs/_search?scroll=20m"},
		{"/logs-*/", time.Hour, "/logs-*/_search?scroll=1h"},
		{"", 90 * time.Second, "/_search?scroll=90s"},
	}

	for _, tc := range tests {
		f := NewFetcher(&scriptedTransport{}, Options{Index: tc.index, KeepAlive: tc.keepAlive})
		assert.Equal(t, tc.want, f.searchPath())
	}
}

func TestFormatKeepAlive(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{20 * time.Minute, "20m"},
		{2 * time.Hour, "2h"},
		{90 * time.Second, "90s"},
		{1500 * time.Millisecond, "1500ms"},
		{500 * time.Microsecond, "1ms"},
		{1500 * time.Microsecond, "2ms"},
		{0, "20m"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatKeepAlive(tc.in))
		})
	}
}

func TestPageMarshalJSON_Verbatim(t *testing.T) {
	body := pageBody("tok1", 1, 1)
	p, err := ParsePage(body)
	require.NoError(t, err)

	out, err := json.Marshal(ResultSet{p})
	require.NoError(t, err)
	assert.JSONEq(t, "["+string(body)+"]", string(out))
}
