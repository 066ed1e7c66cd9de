package store

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("conflict")
)

const uniqueViolation = "23505"

// mapError translates driver errors into store sentinels.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}

// nonNil keeps NULL out of NOT NULL text[] columns.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
