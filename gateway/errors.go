package gateway

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// KindUnavailable covers network failures and gateway 5xx responses.
	// Safe to retry for reads only.
	KindUnavailable ErrorKind = iota
	// KindRejected is a business rejection (e.g. void after settlement).
	// Surfaced verbatim, never retried.
	KindRejected
)

// Error is a normalized gateway failure.
type Error struct {
	Kind       ErrorKind
	Code       string
	Message    string
	HTTPStatus int
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindRejected:
		return fmt.Sprintf("gateway rejected request: %s (%s)", e.Message, e.Code)
	default:
		return fmt.Sprintf("gateway unavailable: %s", e.Message)
	}
}

// IsUnavailable reports whether err is a transport-level gateway failure.
func IsUnavailable(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == KindUnavailable
}

// IsRejected reports whether err is a business rejection from the gateway.
func IsRejected(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == KindRejected
}
