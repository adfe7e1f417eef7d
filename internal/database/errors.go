package database

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup target required by an operation
	// does not exist. Plain lookups report absence with a nil record instead.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a write would duplicate a
	// case-insensitive name or an existing association.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument is returned for malformed identifiers and empty
	// required fields. It is always detected before the store is touched.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnimplemented is returned by a repository variant that does not
	// support an operation.
	ErrUnimplemented = errors.New("unimplemented")

	// ErrStoreFailure wraps transaction and connection errors from the
	// underlying store. The driver error stays reachable with errors.As.
	ErrStoreFailure = errors.New("store failure")

	// ErrIntegrityViolation is returned when stored data breaks an invariant
	// the schema should guarantee, e.g. two roasters sharing a name.
	ErrIntegrityViolation = errors.New("integrity violation")
)

// ValidationError lists the required fields that were empty
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument: empty required field(s): %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// StoreError tags err as a store failure for op
func StoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
}
