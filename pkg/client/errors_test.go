package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"testing"
)

// timeoutError satisfies net.Error with Timeout() == true.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "timeout should retry",
			err:      &UpstreamError{Kind: KindTimeout},
			expected: true,
		},
		{
			name:     "connection failure should retry",
			err:      &UpstreamError{Kind: KindConnection},
			expected: true,
		},
		{
			name:     "server error 500 should retry",
			err:      &UpstreamError{Kind: KindHTTPStatus, StatusCode: 500},
			expected: true,
		},
		{
			name:     "server error 503 should retry",
			err:      &UpstreamError{Kind: KindHTTPStatus, StatusCode: 503},
			expected: true,
		},
		{
			name:     "not found should not retry",
			err:      &UpstreamError{Kind: KindHTTPStatus, StatusCode: 404},
			expected: false,
		},
		{
			name:     "bad request should not retry",
			err:      &UpstreamError{Kind: KindHTTPStatus, StatusCode: 400},
			expected: false,
		},
		{
			name:     "other should not retry",
			err:      &UpstreamError{Kind: KindOther},
			expected: false,
		},
		{
			name:     "wrapped timeout should retry",
			err:      fmt.Errorf("fetch page: %w", &UpstreamError{Kind: KindTimeout}),
			expected: true,
		},
		{
			name:     "plain error should not retry",
			err:      errors.New("boom"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetry(tt.err); got != tt.expected {
				t.Errorf("shouldRetry(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorKind
	}{
		{
			name:     "net timeout",
			err:      &url.Error{Op: "Get", URL: "http://x", Err: timeoutError{}},
			expected: KindTimeout,
		},
		{
			name:     "deadline exceeded",
			err:      fmt.Errorf("read: %w", context.DeadlineExceeded),
			expected: KindTimeout,
		},
		{
			name:     "connection refused",
			err:      &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")},
			expected: KindConnection,
		},
		{
			name:     "unexpected eof",
			err:      io.ErrUnexpectedEOF,
			expected: KindConnection,
		},
		{
			name:     "caller cancelled",
			err:      &url.Error{Op: "Get", URL: "http://x", Err: context.Canceled},
			expected: KindOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTransportError("http://x", tt.err)
			if got.Kind != tt.expected {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.expected)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error should wrap the transport error")
			}
		})
	}
}

func TestUpstreamError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *UpstreamError
		contains []string
	}{
		{
			name:     "http status",
			err:      statusError("https://swapi.dev/api/people/", 503),
			contains: []string{"http_status", "503", "https://swapi.dev/api/people/"},
		},
		{
			name:     "timeout with cause",
			err:      &UpstreamError{Kind: KindTimeout, URL: "https://swapi.dev/api/films/", Err: timeoutError{}},
			contains: []string{"timeout", "i/o timeout"},
		},
		{
			name:     "without cause",
			err:      &UpstreamError{Kind: KindOther, URL: "u"},
			contains: []string{"other", "u"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, want it to contain %q", msg, want)
				}
			}
		})
	}
}

func TestUpstreamError_Class(t *testing.T) {
	tests := []struct {
		err      *UpstreamError
		expected string
	}{
		{&UpstreamError{Kind: KindHTTPStatus, StatusCode: 404}, "client"},
		{&UpstreamError{Kind: KindHTTPStatus, StatusCode: 502}, "server"},
		{&UpstreamError{Kind: KindTimeout}, "timeout"},
		{&UpstreamError{Kind: KindConnection}, "connection"},
	}

	for _, tt := range tests {
		if got := tt.err.Class(); got != tt.expected {
			t.Errorf("Class() = %q, want %q", got, tt.expected)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("wrapped: %w", statusError("u", 404))) {
		t.Error("expected wrapped 404 to be not found")
	}
	if IsNotFound(statusError("u", 500)) {
		t.Error("500 must not be not found")
	}
	if IsNotFound(&UpstreamError{Kind: KindTimeout}) {
		t.Error("timeout must not be not found")
	}
	if StatusCode(errors.New("plain")) != 0 {
		t.Error("plain error should have no status code")
	}
}
