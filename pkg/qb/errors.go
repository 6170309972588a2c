package qb

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by First when no row matches.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidModel is returned when a model is not a struct.
	ErrInvalidModel = errors.New("invalid model")
)

// QueryError wraps a failed query with the SQL that produced it.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v\nQuery: %s", e.Err, e.Query)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
