package progress

import (
	"errors"
	"fmt"
)

// StoreError reports a failed read or write against the progress store.
// The in-memory state stays authoritative; the caller may retry.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("progress store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a StoreError.
func IsTransient(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
