package upstream

import (
	"errors"
	"fmt"
)

// Error is a failed outbound fetch: a non-2xx status, or a network/timeout
// failure when StatusCode is 0. URL is for logs only and must not be echoed
// to clients.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream: %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("upstream: %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}
