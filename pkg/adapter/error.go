package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// AdapterError wraps provider errors with status metadata. Status carries the
// upstream HTTP status when known; Temporary marks errors that are safe to
// retry regardless of status.
type AdapterError struct {
	Status    int
	Temporary bool
	Err       error
}

func (e *AdapterError) Error() string {
	if e == nil {
		return "adapter error"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("adapter error (status=%d)", e.Status)
}

func (e *AdapterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewStatusError wraps err with the upstream HTTP status code.
func NewStatusError(status int, err error) *AdapterError {
	return &AdapterError{Status: status, Err: err}
}

// NewTransientError wraps err as explicitly retryable.
func NewTransientError(err error) *AdapterError {
	return &AdapterError{Temporary: true, Err: err}
}

// IsTransient reports whether an error is safe to retry against the same
// model. Rate limits, server errors and network timeouts are transient;
// everything else (policy rejections, malformed requests, auth failures) is
// terminal and retrying cannot change the outcome.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		if adapterErr.Temporary {
			return true
		}
		return adapterErr.Status == 429 || (adapterErr.Status >= 500 && adapterErr.Status <= 599)
	}
	return false
}
