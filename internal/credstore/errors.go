package credstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by a Backend when a key has no stored value.
	ErrNotFound = errors.New("credential not found")

	// ErrReadOnly is returned by a Backend that does not support writes.
	ErrReadOnly = errors.New("credential storage is read-only")

	// ErrEmptyValue is returned by Store when asked to persist an empty value.
	// Nothing reaches the backend in that case.
	ErrEmptyValue = errors.New("credential value cannot be empty")
)

// StorageError reports a failure of the underlying secure medium.
type StorageError struct {
	Backend string
	Op      string
	Key     string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s storage: %s %s: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
