package storage

import (
	"errors"

	"defi-hub/internal/domain"
)

// Storage errors shared by all store implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConflict is returned when a write would break a cross-row invariant,
	// such as two spotlight entries sharing a rank in overlapping date ranges.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = domain.ErrInvalid
)
