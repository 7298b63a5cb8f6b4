package storage

import "errors"

// Record store and filter errors. Call sites wrap these with context;
// callers match them with errors.Is.
var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateIdentifier is returned when inserting a record or trade
	// whose identifier already exists. Identifiers are never reused.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrInvalidTransition is returned when a status update would move a
	// record backwards or leave it unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDanglingReference is returned when a trade references a record
	// that is not in the store.
	ErrDanglingReference = errors.New("dangling record reference")

	// ErrMalformedFilterValue is returned when a filter value is outside
	// its dimension's enumeration, or the dimension is unknown.
	ErrMalformedFilterValue = errors.New("malformed filter value")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
