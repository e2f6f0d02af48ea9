package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/swapi-gateway/pkg/swapi"
	"github.com/rs/zerolog"
)

// scriptedTransport replays one outcome per round trip.
type scriptedTransport struct {
	mu       sync.Mutex
	outcomes []func(*http.Request) (*http.Response, error)
	calls    int
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.mu.Unlock()

	if idx >= len(s.outcomes) {
		idx = len(s.outcomes) - 1
	}
	return s.outcomes[idx](req)
}

func respondTimeout(*http.Request) (*http.Response, error) {
	return nil, timeoutError{}
}

func respondJSON(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}, nil
	}
}

// newScriptedClient builds a client whose transport and backoff are faked.
func newScriptedClient(t *testing.T, outcomes ...func(*http.Request) (*http.Response, error)) (*Client, *scriptedTransport, *recordingSleep) {
	t.Helper()

	client, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	transport := &scriptedTransport{outcomes: outcomes}
	sleeper := &recordingSleep{}
	client.SetHTTPClient(&http.Client{Transport: transport})
	client.SetSleepFunc(sleeper.sleep)
	client.SetLogger(zerolog.Nop())
	return client, transport, sleeper
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			mutate:      func(*Config) {},
			expectError: false,
		},
		{
			name:        "empty base url",
			mutate:      func(c *Config) { c.BaseURL = "" },
			expectError: true,
			errorMsg:    "base url is required",
		},
		{
			name:        "unsupported scheme",
			mutate:      func(c *Config) { c.BaseURL = "ftp://swapi.dev/api" },
			expectError: true,
			errorMsg:    `base url must be http or https (got "ftp://swapi.dev/api")`,
		},
		{
			name:        "zero timeout",
			mutate:      func(c *Config) { c.Timeout = 0 },
			expectError: true,
			errorMsg:    "timeout must be > 0 (got 0s)",
		},
		{
			name:        "zero attempts",
			mutate:      func(c *Config) { c.Retry.MaxAttempts = 0 },
			expectError: true,
			errorMsg:    "max_attempts must be >= 1 (got 0)",
		},
		{
			name:        "shrinking backoff",
			mutate:      func(c *Config) { c.Retry.BackoffMultiplier = 0.5 },
			expectError: true,
			errorMsg:    "backoff_multiplier must be >= 1 (got 0.5)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			client, err := New(cfg)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if client == nil {
				t.Error("Client is nil")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
}

func TestFetchResource_ForwardsSearch(t *testing.T) {
	var gotPath, gotQuery, gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("search")
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count":1,"next":null,"previous":null,"results":[{"name":"Luke Skywalker","height":"172"}]}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL + "/api"
	cfg.UserAgent = "TestApp/1.0.0"
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	page, err := client.FetchResource(context.Background(), swapi.People, url.Values{"search": []string{"Luke"}})
	if err != nil {
		t.Fatalf("FetchResource() failed: %v", err)
	}

	if gotPath != "/api/people/" {
		t.Errorf("path = %q, want /api/people/", gotPath)
	}
	if gotQuery != "Luke" {
		t.Errorf("search = %q, want Luke", gotQuery)
	}
	if gotUA != "TestApp/1.0.0" {
		t.Errorf("User-Agent = %q, want TestApp/1.0.0", gotUA)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want application/json", gotAccept)
	}
	if page.Count != 1 || len(page.Results) != 1 {
		t.Fatalf("page = %+v, want one result", page)
	}
	if page.NextURL() != "" {
		t.Errorf("NextURL() = %q, want empty", page.NextURL())
	}
	if page.Results[0].String("name") != "Luke Skywalker" {
		t.Errorf("name = %q, want Luke Skywalker", page.Results[0].String("name"))
	}
}

func TestFetchResource_KeepsNumbers(t *testing.T) {
	client, _, _ := newScriptedClient(t,
		respondJSON(200, `{"count":1,"next":null,"results":[{"title":"A New Hope","episode_id":4}]}`),
	)

	page, err := client.FetchResource(context.Background(), swapi.Films, nil)
	if err != nil {
		t.Fatalf("FetchResource() failed: %v", err)
	}

	n, ok := page.Results[0]["episode_id"].(json.Number)
	if !ok {
		t.Fatalf("episode_id type = %T, want json.Number", page.Results[0]["episode_id"])
	}
	if n.String() != "4" {
		t.Errorf("episode_id = %s, want 4", n)
	}
}

func TestFetch_TimeoutThenSuccess(t *testing.T) {
	client, transport, sleeper := newScriptedClient(t,
		respondTimeout,
		respondJSON(200, `{"count":0,"results":[]}`),
	)

	page, err := client.FetchResource(context.Background(), swapi.People, nil)
	if err != nil {
		t.Fatalf("FetchResource() failed: %v", err)
	}
	if page == nil {
		t.Fatal("page is nil")
	}
	if transport.calls != 2 {
		t.Errorf("upstream calls = %d, want 2", transport.calls)
	}
	if len(sleeper.waits) != 1 || sleeper.waits[0] != time.Second {
		t.Errorf("sleeps = %v, want [1s]", sleeper.waits)
	}
}

func TestFetch_ConnectionErrorThenSuccess(t *testing.T) {
	client, transport, sleeper := newScriptedClient(t,
		func(*http.Request) (*http.Response, error) { return nil, errors.New("connection refused") },
		respondJSON(200, `{"count":0,"results":[]}`),
	)

	if _, err := client.FetchResource(context.Background(), swapi.People, nil); err != nil {
		t.Fatalf("FetchResource() failed: %v", err)
	}
	if transport.calls != 2 || len(sleeper.waits) != 1 {
		t.Errorf("calls = %d, sleeps = %v; want 2 calls, 1 sleep", transport.calls, sleeper.waits)
	}
}

func TestFetch_ServerErrorThenSuccess(t *testing.T) {
	client, transport, sleeper := newScriptedClient(t,
		respondJSON(500, `{"detail":"boom"}`),
		respondJSON(200, `{"count":0,"results":[]}`),
	)

	if _, err := client.FetchResource(context.Background(), swapi.Planets, nil); err != nil {
		t.Fatalf("FetchResource() failed: %v", err)
	}
	if transport.calls != 2 || len(sleeper.waits) != 1 {
		t.Errorf("calls = %d, sleeps = %v; want 2 calls, 1 sleep", transport.calls, sleeper.waits)
	}
}

func TestFetch_ExhaustedTimeouts(t *testing.T) {
	client, transport, sleeper := newScriptedClient(t, respondTimeout)

	_, err := client.FetchResource(context.Background(), swapi.People, nil)
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("error = %v, want ErrRetryExhausted", err)
	}

	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Kind != KindTimeout {
		t.Errorf("error should carry a timeout UpstreamError, got %v", err)
	}
	if transport.calls != 3 {
		t.Errorf("upstream calls = %d, want 3", transport.calls)
	}
	if len(sleeper.waits) != 2 {
		t.Errorf("sleeps = %v, want 2", sleeper.waits)
	}
}

func TestFetch_NotFoundNoRetry(t *testing.T) {
	client, transport, sleeper := newScriptedClient(t, respondJSON(404, `{"detail":"Not found"}`))

	_, err := client.FetchRecord(context.Background(), swapi.Films, 99)
	if !IsNotFound(err) {
		t.Fatalf("error = %v, want upstream 404", err)
	}
	if transport.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", transport.calls)
	}
	if len(sleeper.waits) != 0 {
		t.Errorf("sleeps = %v, want none", sleeper.waits)
	}
}

func TestFetch_InvalidJSON(t *testing.T) {
	client, transport, _ := newScriptedClient(t, respondJSON(200, `not json`))

	_, err := client.FetchResource(context.Background(), swapi.People, nil)
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Kind != KindOther {
		t.Fatalf("error = %v, want KindOther", err)
	}
	if transport.calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (decode errors are final)", transport.calls)
	}
}

func TestFetchRecord_URL(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"title":"A New Hope","characters":["` + "http://" + r.Host + `/api/people/1/"]}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL + "/api/"
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	record, err := client.FetchRecord(context.Background(), swapi.Films, 1)
	if err != nil {
		t.Fatalf("FetchRecord() failed: %v", err)
	}
	if gotPath != "/api/films/1/" {
		t.Errorf("path = %q, want /api/films/1/", gotPath)
	}
	if record.String("title") != "A New Hope" {
		t.Errorf("title = %q", record.String("title"))
	}

	links := record.URLs("characters")
	if len(links) != 1 {
		t.Fatalf("characters = %v, want 1 link", links)
	}
	if _, err := client.FetchRecordURL(context.Background(), links[0]); err != nil {
		t.Errorf("FetchRecordURL() failed: %v", err)
	}
	if gotPath != "/api/people/1/" {
		t.Errorf("path = %q, want /api/people/1/", gotPath)
	}
}

func TestFetchURL_RejectsForeignHost(t *testing.T) {
	client, transport, _ := newScriptedClient(t, respondJSON(200, `{}`))

	_, err := client.FetchURL(context.Background(), "https://evil.example/api/people/?page=2")
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Kind != KindOther {
		t.Fatalf("error = %v, want KindOther", err)
	}
	if transport.calls != 0 {
		t.Errorf("upstream calls = %d, want 0", transport.calls)
	}
}

func TestResourceLabel(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://swapi.dev/api/people/?page=2", "people"},
		{"https://swapi.dev/api/starships/9/", "starships"},
		{"https://swapi.dev/api/vehicles/4/", "other"},
	}

	for _, tt := range tests {
		u, _ := url.Parse(tt.raw)
		if got := resourceLabel(u); got != tt.want {
			t.Errorf("resourceLabel(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFetch_ContextCancelledDuringBackoff(t *testing.T) {
	client, transport, _ := newScriptedClient(t, respondJSON(503, `{}`))
	client.SetSleepFunc(contextSleep)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchResource(ctx, swapi.People, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if transport.calls > 1 {
		t.Errorf("upstream calls = %d, want at most 1", transport.calls)
	}
}
