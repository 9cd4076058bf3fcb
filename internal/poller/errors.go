package poller

import (
	"errors"
	"fmt"
)

// ConnectionError reports that a POST never produced an HTTP response.
// Only connection errors are retried.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to '%s' failed: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NewConnectionError creates a new ConnectionError
func NewConnectionError(url string, err error) *ConnectionError {
	return &ConnectionError{URL: url, Err: err}
}

// IsConnectionError returns true if err is or wraps a ConnectionError
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}
