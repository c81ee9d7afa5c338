package etherscan

import (
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned when the API answers with a non-2xx status or with
// status "0" for a reason other than an empty history.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 && e.StatusCode != http.StatusOK {
		return fmt.Sprintf("etherscan api status %d: %s", e.StatusCode, e.Message)
	}
	return "etherscan api: " + e.Message
}

// RateLimited reports whether the API throttled the request. Etherscan
// reports its per-key limit in the body of a 200 response.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		strings.Contains(strings.ToLower(e.Message), "rate limit")
}
