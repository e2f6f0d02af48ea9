package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorKind classifies an upstream failure.
type ErrorKind string

const (
	// KindTimeout is a per-attempt read timeout.
	KindTimeout ErrorKind = "timeout"

	// KindConnection is a network-level connection failure.
	KindConnection ErrorKind = "connection"

	// KindHTTPStatus is a non-2xx upstream response.
	KindHTTPStatus ErrorKind = "http_status"

	// KindOther covers everything else (bad URLs, undecodable bodies).
	KindOther ErrorKind = "other"
)

// UpstreamError is the single failure type produced by an attempt.
// StatusCode is only set for KindHTTPStatus.
type UpstreamError struct {
	Kind       ErrorKind
	StatusCode int
	URL        string
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("upstream %s error (status %d) for %s", e.Kind, e.StatusCode, e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream %s error for %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("upstream %s error for %s", e.Kind, e.URL)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Class returns the label used for metrics and logs. HTTP failures are
// split into client (4xx) and server (5xx).
func (e *UpstreamError) Class() string {
	if e.Kind != KindHTTPStatus {
		return string(e.Kind)
	}
	if e.StatusCode >= 500 {
		return "server"
	}
	return "client"
}

// shouldRetry is the only retry decision: timeouts, connection failures and
// 5xx responses are transient, anything else is final.
func shouldRetry(err error) bool {
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		return false
	}
	switch ue.Kind {
	case KindTimeout, KindConnection:
		return true
	case KindHTTPStatus:
		return ue.StatusCode >= 500
	default:
		return false
	}
}

// classifyTransportError maps an error returned by http.Client.Do to an
// UpstreamError.
func classifyTransportError(url string, err error) *UpstreamError {
	kind := KindConnection
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.Is(err, context.Canceled):
		kind = KindOther
	}
	return &UpstreamError{Kind: kind, URL: url, Err: err}
}

// statusError builds the error for a non-2xx response.
func statusError(url string, statusCode int) *UpstreamError {
	return &UpstreamError{
		Kind:       KindHTTPStatus,
		StatusCode: statusCode,
		URL:        url,
		Err:        errors.New(http.StatusText(statusCode)),
	}
}

// StatusCode extracts the upstream HTTP status from err, or 0.
func StatusCode(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Kind == KindHTTPStatus {
		return ue.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
