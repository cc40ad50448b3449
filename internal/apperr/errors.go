// Package apperr defines sentinel errors shared across packages.
package apperr

import "errors"

var (
	// ErrUnsupportedPlatform is returned when the Things logbook
	// cannot exist on this OS and the override flag is not set.
	ErrUnsupportedPlatform = errors.New("platform not supported")
)
