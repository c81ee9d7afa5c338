package mempool

import (
	"fmt"
	"net/http"
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mempool api status %d: %s", e.StatusCode, e.Body)
}

// RateLimited reports whether the API throttled the request.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}
