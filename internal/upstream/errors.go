package upstream

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when a call that requires a bearer
// token is made without one. No request is sent in that case.
var ErrNotAuthenticated = errors.New("not authenticated")

// NetworkError wraps a transport-level failure (DNS, dial, timeout,
// open circuit breaker). The request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx upstream response. Message carries the
// server-provided explanation when one was decodable.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream request failed with status %d", e.StatusCode)
}

// IsAuthFailure reports whether the error is an upstream 401/422,
// which means the stored bearer token is invalid or expired and the
// local session must be cleared.
func IsAuthFailure(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == 401 || httpErr.StatusCode == 422
}
