package notifications

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the target notification does not exist or is
// not owned by the caller. Ownership mismatch is deliberately
// indistinguishable from nonexistence.
var ErrNotFound = errors.New("notifications: not found")

// ValidationError flags bad or missing caller input. Detected before the
// store or hub is touched; never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("notifications: invalid %s", e.Field)
	}
	return fmt.Sprintf("notifications: invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps a failed store operation.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("notifications: storage %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is caller-input related.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
