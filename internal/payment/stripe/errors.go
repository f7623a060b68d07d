package stripe

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTimeout marks a provider call that exceeded its deadline. Callers
	// may retry; the provider applies requests atomically.
	ErrTimeout = errors.New("provider_timeout")

	// ErrNotFound marks a customer, subscription or price the provider no
	// longer knows.
	ErrNotFound = errors.New("provider_not_found")
)

// Error is a permanent, non-retryable provider failure.
type Error struct {
	HTTPStatus int
	Type       string
	Code       string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error (status %d, code %s): %s", e.HTTPStatus, e.Code, e.Message)
}

// IsTimeout reports whether err represents a retryable timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
