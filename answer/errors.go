package answer

import "errors"

var (
	// ErrGeneratorRequired is returned when a text generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")
)
