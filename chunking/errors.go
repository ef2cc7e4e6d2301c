package chunking

import "errors"

var (
	// ErrInvalidMaxTokens is returned when the token window is smaller than one.
	ErrInvalidMaxTokens = errors.New("max tokens must be at least 1")

	// ErrInvalidOverlap is returned for a negative overlap.
	ErrInvalidOverlap = errors.New("overlap cannot be negative")
)
