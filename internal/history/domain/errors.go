package domain

import "errors"

var (
	// ErrRecordNotFound is returned when an operation references an id
	// that is not in the catalog.
	ErrRecordNotFound = errors.New("history record not found")

	// ErrInvalidFormat is returned when an import payload has no usable
	// records field.
	ErrInvalidFormat = errors.New("invalid history format")

	// ErrUnsupportedFormat is returned for unknown export formats.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrEmptyTitle is returned when a manual save has no title.
	ErrEmptyTitle = errors.New("title is required")
)
