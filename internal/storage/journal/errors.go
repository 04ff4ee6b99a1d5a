package journal

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDriver  = errors.New("unsupported journal driver")
	ErrMissingDSN     = errors.New("journal dsn is required")
	ErrInvalidPool    = errors.New("invalid journal connection pool settings")
	ErrInvalidTimeout = errors.New("journal timeout must be positive")
	ErrClosed         = errors.New("journal is closed")
)

// Error reports which journal operation failed.
type Error struct {
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("journal %s: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("journal %s: %s", e.Operation, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(op, msg string, cause error) error {
	return &Error{Operation: op, Message: msg, Cause: cause}
}
