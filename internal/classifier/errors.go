package classifier

import (
	"errors"
	"fmt"
)

// Kind classifies a failed classification call.
type Kind int

const (
	// KindNetwork covers transport failures, throttling and server errors. Only
	// this kind is worth retrying.
	KindNetwork Kind = iota + 1
	// KindInvalidResponse is an empty, undecodable or out-of-range answer.
	KindInvalidResponse
	// KindRemoteRejected is an explicit refusal by the service.
	KindRemoteRejected
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindInvalidResponse:
		return "invalid response"
	case KindRemoteRejected:
		return "remote rejected"
	default:
		return "unknown"
	}
}

// Error is returned by Classify for every failure.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("classifier %s: %s", e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RateLimited reports whether the service throttled the call.
func (e *Error) RateLimited() bool {
	return e.StatusCode == 429
}

// KindOf returns the kind of a classifier error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind, true
	}
	return 0, false
}

// IsRetryable reports whether err is a network-kind classifier error.
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindNetwork
}

func networkError(msg string, status int, err error) *Error {
	return &Error{Kind: KindNetwork, Message: msg, StatusCode: status, Err: err}
}

func invalidResponse(msg string, err error) *Error {
	return &Error{Kind: KindInvalidResponse, Message: msg, Err: err}
}

func rejected(msg string, status int) *Error {
	return &Error{Kind: KindRemoteRejected, Message: msg, StatusCode: status}
}
