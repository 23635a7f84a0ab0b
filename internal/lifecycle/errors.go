package lifecycle

import (
	"errors"
	"fmt"
)

// ErrNotFound matches errors for operations on an unknown window id.
var ErrNotFound = errors.New("window not found")

// NotFoundError reports an unknown window id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("window %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// HostError reports a failed window host operation.
type HostError struct {
	Op  string
	ID  string
	Err error
}

func (e *HostError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *HostError) Unwrap() error {
	return e.Err
}
