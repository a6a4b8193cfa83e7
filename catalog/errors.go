package catalog

import "errors"

var (
	// ErrNotFound is returned when a requested item or category does not exist.
	ErrNotFound = errors.New("catalog: not found")

	// ErrStoreUnavailable marks failures of the relational store. It is the one fatal
	// condition of the read path since there is no other source of truth.
	ErrStoreUnavailable = errors.New("catalog: store unavailable")
)

// StoreError wraps a driver error with the store operation that produced it.
type StoreError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return "store " + e.Op + ": " + e.Err.Error()
}

// Unwrap exposes the driver error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports every StoreError as ErrStoreUnavailable.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}
