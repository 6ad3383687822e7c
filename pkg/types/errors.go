package types

import "errors"

// Domain errors for type validation
var (
	// Content record errors
	ErrMissingID      = errors.New("content record has no id")
	ErrNegativeCount  = errors.New("engagement counts must be non-negative")
	ErrNegativeRating = errors.New("average rating must be non-negative")

	// Section errors
	ErrUnknownSortKey = errors.New("unknown sort key")
)
