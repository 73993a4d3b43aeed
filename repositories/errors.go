package repositories

import "errors"

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when a version-guarded write lost the
	// race against a concurrent writer. Callers re-read and retry.
	ErrVersionConflict = errors.New("version conflict")

	// ErrDuplicate is returned when a unique index rejects an insert.
	ErrDuplicate = errors.New("duplicate record")
)
