package explorer

import "errors"

// Outcomes the HTTP layer maps to status codes.
var (
	// ErrNotFound means the requested parent record does not exist upstream.
	ErrNotFound = errors.New("record not found")

	// ErrNoResults means the query was valid but matched nothing.
	ErrNoResults = errors.New("no results")

	// ErrUpstream means the upstream could not be reached or refused the request.
	ErrUpstream = errors.New("upstream unavailable")
)
