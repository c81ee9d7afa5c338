package txcache

import "fmt"

// FetchError is returned when the provider failed and no cached history exists.
type FetchError struct {
	Address string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch transactions of %s: %v", e.Address, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
