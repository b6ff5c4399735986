// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides an in-process fake of the Elasticsearch search,
// scroll and update_by_query endpoints for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"
)

// Route kinds accepted by FailNext and DropNext.
const (
	RouteSearch = "search"
	RouteScroll = "scroll"
	RouteUpdate = "update"
)

// DefaultPageSize matches Elasticsearch's default search size.
const DefaultPageSize = 10

// RecordedRequest is a request seen by the fake.
type RecordedRequest struct {
	Kind     string
	Method   string
	Path     string
	RawQuery string
	Body     []byte
}

type scrollContext struct {
	index  string
	offset int
	size   int
	seq    int
	origin int
}

type fault struct {
	status int
	drop   bool
}

// FakeES serves a fixed set of documents through the search and scroll APIs.
// Every scroll response carries a fresh scroll id and only the latest id of
// a context is accepted.
type FakeES struct {
	server *httptest.Server

	mu        sync.Mutex
	docs      map[string][]map[string]interface{}
	scrolls   map[string]*scrollContext
	contexts  int
	faults    map[string][]fault
	requests  []RecordedRequest
	rotateIDs bool
}

// NewFakeES starts a fake server. Call Close when done.
func NewFakeES() *FakeES {
	gin.SetMode(gin.TestMode)

	f := &FakeES{
		docs:      make(map[string][]map[string]interface{}),
		scrolls:   make(map[string]*scrollContext),
		faults:    make(map[string][]fault),
		rotateIDs: true,
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header("X-Elastic-Product", "Elasticsearch")
		c.Next()
	})

	r.HEAD("/", f.info)
	r.GET("/", f.info)
	r.POST("/_search", f.search)
	r.POST("/_search/scroll", f.scroll)
	r.POST("/:index/_search", f.search)
	r.POST("/:index/_update_by_query", f.updateByQuery)

	f.server = httptest.NewServer(r)
	return f
}

// URL returns the base URL of the fake.
func (f *FakeES) URL() string {
	return f.server.URL
}

// Close shuts the server down.
func (f *FakeES) Close() {
	f.server.Close()
}

// AddDocs appends documents to index.
func (f *FakeES) AddDocs(index string, docs ...map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[index] = append(f.docs[index], docs...)
}

// KeepScrollIDs makes every response of a scroll context reuse the first id.
func (f *FakeES) KeepScrollIDs() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rotateIDs = false
}

// FailNext answers the next n requests of kind with status.
func (f *FakeES) FailNext(kind string, status, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.faults[kind] = append(f.faults[kind], fault{status: status})
	}
}

// DropNext closes the connection without answering the next n requests of
// kind.
func (f *FakeES) DropNext(kind string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.faults[kind] = append(f.faults[kind], fault{drop: true})
	}
}

// Requests returns the requests recorded so far.
func (f *FakeES) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// RequestsOf returns the recorded requests of kind.
func (f *FakeES) RequestsOf(kind string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range f.Requests() {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// OpenScrolls returns the number of scroll contexts created.
func (f *FakeES) OpenScrolls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contexts
}

// record stores the request and reports whether a queued fault handled it.
func (f *FakeES) record(c *gin.Context, kind string) ([]byte, bool) {
	body, _ := io.ReadAll(c.Request.Body)

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Kind:     kind,
		Method:   c.Request.Method,
		Path:     c.Request.URL.Path,
		RawQuery: c.Request.URL.RawQuery,
		Body:     body,
	})
	var ft *fault
	if queue := f.faults[kind]; len(queue) > 0 {
		ft = &queue[0]
		f.faults[kind] = queue[1:]
	}
	f.mu.Unlock()

	if ft == nil {
		return body, false
	}
	if ft.drop {
		if conn, _, err := c.Writer.Hijack(); err == nil {
			conn.Close()
		}
		c.Abort()
		return body, true
	}
	c.JSON(ft.status, gin.H{
		"error":  gin.H{"type": "injected_failure", "reason": "fault injected by test"},
		"status": ft.status,
	})
	return body, true
}

func (f *FakeES) info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":         "fake",
		"cluster_name": "scrollcat-test",
		"version":      gin.H{"number": "8.19.0"},
		"tagline":      "You Know, for Search",
	})
}

func (f *FakeES) search(c *gin.Context) {
	body, handled := f.record(c, RouteSearch)
	if handled {
		return
	}

	index := c.Param("index")
	size := DefaultPageSize
	var req struct {
		Size *int `json:"size"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"type": "parse_exception", "reason": err.Error()}})
			return
		}
	}
	if req.Size != nil {
		size = *req.Size
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	docs := f.docs[index]
	end := min(size, len(docs))
	resp := gin.H{
		"took":      1,
		"timed_out": false,
		"hits": gin.H{
			"total": gin.H{"value": len(docs), "relation": "eq"},
			"hits":  f.hits(index, 0, end),
		},
	}

	if c.Query("scroll") != "" {
		f.contexts++
		sc := &scrollContext{index: index, offset: end, size: size, origin: f.contexts}
		id := f.scrollID(sc)
		f.scrolls[id] = sc
		resp["_scroll_id"] = id
	}

	c.JSON(http.StatusOK, resp)
}

func (f *FakeES) scroll(c *gin.Context) {
	body, handled := f.record(c, RouteScroll)
	if handled {
		return
	}

	var req struct {
		Scroll   string `json:"scroll"`
		ScrollID string `json:"scroll_id"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.ScrollID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"type": "action_request_validation_exception", "reason": "scrollId is missing"}})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	sc, ok := f.scrolls[req.ScrollID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"type": "search_context_missing_exception", "reason": "No search context found for id [" + req.ScrollID + "]"}})
		return
	}

	docs := f.docs[sc.index]
	start := min(sc.offset, len(docs))
	end := min(start+sc.size, len(docs))
	sc.offset = end

	id := req.ScrollID
	if f.rotateIDs {
		delete(f.scrolls, req.ScrollID)
		sc.seq++
		id = f.scrollID(sc)
		f.scrolls[id] = sc
	}

	c.JSON(http.StatusOK, gin.H{
		"_scroll_id": id,
		"took":       1,
		"timed_out":  false,
		"hits": gin.H{
			"total": gin.H{"value": len(docs), "relation": "eq"},
			"hits":  f.hits(sc.index, start, end),
		},
	})
}

func (f *FakeES) updateByQuery(c *gin.Context) {
	if _, handled := f.record(c, RouteUpdate); handled {
		return
	}

	f.mu.Lock()
	n := len(f.docs[c.Param("index")])
	f.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"took": 1, "updated": n, "failures": []interface{}{}})
}

func (f *FakeES) hits(index string, start, end int) []gin.H {
	out := make([]gin.H, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, gin.H{
			"_index":  index,
			"_id":     fmt.Sprintf("%d", i),
			"_score":  1.0,
			"_source": f.docs[index][i],
		})
	}
	return out
}

func (f *FakeES) scrollID(sc *scrollContext) string {
	return fmt.Sprintf("scroll-%d-%d", sc.origin, sc.seq)
}
