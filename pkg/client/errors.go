package client

import (
	"errors"
	"fmt"
)

var (
	ErrRetryExhausted   = errors.New("max retries exceeded")
	ErrTransport        = errors.New("transport error")
	ErrEmptyResult      = errors.New("empty result")
	ErrLocationNotFound = errors.New("location not found")
	ErrCircuitOpen      = errors.New("circuit breaker open")
	ErrDecode           = errors.New("failed to decode response")
	ErrRateLimited      = errors.New("rate limit wait exceeds deadline")

	// ErrResolve wraps every failure of the location resolution step.
	ErrResolve = errors.New("location resolution failed")
)

// StatusError is returned for any non-2xx upstream status that is not retried.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}
