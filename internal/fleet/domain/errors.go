package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrTransientStore matches any I/O failure against the durable store.
	// A retry may succeed.
	ErrTransientStore = errors.New("transient store failure")
)

// StoreError wraps an I/O failure from the durable store.
type StoreError struct {
	Op  string
	Err error
}

// NewStoreError wraps err as a transient failure of op.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrTransientStore
}
