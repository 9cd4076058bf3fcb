package table

import (
	"errors"
	"fmt"
)

// Common table error types
var (
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("table service unavailable")
	ErrClosed      = errors.New("table is closed")
)

// Error represents a table operation error with additional context
type Error struct {
	Op    string // Operation that failed (e.g., "PutItem", "GetItem")
	Table string // Table involved in the operation
	Err   error  // Underlying error
}

func (e *Error) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s on table '%s' failed: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error
func NewError(op, table string, err error) *Error {
	return &Error{
		Op:    op,
		Table: table,
		Err:   err,
	}
}

// validationf builds a validation error carrying a DynamoDB-style message.
func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsValidation returns true if the error was caused by a rejected request
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable returns true if the backing store could not be reached
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrClosed)
}
