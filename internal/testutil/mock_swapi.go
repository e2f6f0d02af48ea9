// Package testutil provides a fake upstream catalog for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// APIPath is the path prefix the fake catalog serves under.
const APIPath = "/api"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MockResponse defines one canned response.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockSWAPI is a configurable fake catalog server.
type MockSWAPI struct {
	server    *httptest.Server
	mu        sync.RWMutex
	handlers  map[string]http.HandlerFunc
	sequences map[string][]MockResponse

	// Tracking
	RequestCount int
	PathCounts   map[string]int
	LastQuery    url.Values
	LastHeader   http.Header
}

// NewMockSWAPI starts a new fake catalog server.
func NewMockSWAPI() *MockSWAPI {
	mock := &MockSWAPI{
		handlers:   make(map[string]http.HandlerFunc),
		sequences:  make(map[string][]MockResponse),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.LastQuery = r.URL.Query()
		mock.LastHeader = r.Header.Clone()

		// Sequences take precedence and replay their last entry once drained
		if seq, ok := mock.sequences[r.URL.Path]; ok && len(seq) > 0 {
			resp := seq[0]
			if len(seq) > 1 {
				mock.sequences[r.URL.Path] = seq[1:]
			}
			mock.mu.Unlock()
			writeResponse(w, resp)
			return
		}

		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		writeResponse(w, NewNotFoundResponse())
	}))

	return mock
}

// URL returns the catalog root, suitable as a client base URL.
func (m *MockSWAPI) URL() string {
	return m.server.URL + APIPath
}

// Close shuts down the mock server.
func (m *MockSWAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockSWAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PathCounts = make(map[string]int)
	m.LastQuery = nil
	m.LastHeader = nil
}

// ResourcePath returns the listing path of a resource type.
func ResourcePath(resource string) string {
	return fmt.Sprintf("%s/%s/", APIPath, resource)
}

// RecordPath returns the path of a single record.
func RecordPath(resource string, id int) string {
	return fmt.Sprintf("%s/%s/%d/", APIPath, resource, id)
}

// RecordURL returns the absolute link of a single record, as the catalog
// embeds it in related records.
func (m *MockSWAPI) RecordURL(resource string, id int) string {
	return m.server.URL + RecordPath(resource, id)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockSWAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockSWAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// SetSequence configures successive responses for a path. The last response
// repeats once the sequence is drained.
func (m *MockSWAPI) SetSequence(path string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[path] = responses
}

// SetPages serves records for a resource listing, pageSize per page, with
// absolute next/previous links carrying the page number and any search term.
// count is reported on every page.
func (m *MockSWAPI) SetPages(resource string, count, pageSize int, records []map[string]any) {
	path := ResourcePath(resource)
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				page = n
			}
		}

		start := (page - 1) * pageSize
		if start > len(records) {
			writeResponse(w, NewNotFoundResponse())
			return
		}
		end := start + pageSize
		if end > len(records) {
			end = len(records)
		}

		link := func(n int) *string {
			q := url.Values{}
			if search := r.URL.Query().Get("search"); search != "" {
				q.Set("search", search)
			}
			q.Set("page", strconv.Itoa(n))
			s := m.server.URL + path + "?" + q.Encode()
			return &s
		}

		body := map[string]any{
			"count":    count,
			"next":     nil,
			"previous": nil,
			"results":  records[start:end],
		}
		if end < len(records) {
			body["next"] = link(page + 1)
		}
		if page > 1 {
			body["previous"] = link(page - 1)
		}
		writeJSON(w, http.StatusOK, body)
	})
}

// SetRecord serves a single record.
func (m *MockSWAPI) SetRecord(resource string, id int, record map[string]any) {
	m.SetHandler(RecordPath(resource, id), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, record)
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockSWAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to path.
func (m *MockSWAPI) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// GetLastQuery returns the query string of the latest request.
func (m *MockSWAPI) GetLastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeResponse(w, NewServerErrorResponse())
		return
	}
	writeResponse(w, MockResponse{StatusCode: status, Body: string(body)})
}

// NewListingResponse creates a single-page listing response.
func NewListingResponse(count int, records ...map[string]any) MockResponse {
	if records == nil {
		records = []map[string]any{}
	}
	body, _ := json.Marshal(map[string]any{
		"count":    count,
		"next":     nil,
		"previous": nil,
		"results":  records,
	})
	return MockResponse{StatusCode: http.StatusOK, Body: string(body)}
}

// NewNotFoundResponse creates the catalog's 404 response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"detail": "Not found"}`,
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"detail": "Internal server error"}`,
	}
}

// NewSlowResponse creates a response delayed past a client timeout.
func NewSlowResponse(delay time.Duration, inner MockResponse) MockResponse {
	inner.Delay = delay
	return inner
}

// People returns n numbered people records named "Person NN".
func People(n int) []map[string]any {
	records := make([]map[string]any, n)
	for i := range records {
		records[i] = map[string]any{
			"name":   fmt.Sprintf("Person %02d", i+1),
			"height": strconv.Itoa(150 + i),
		}
	}
	return records
}
