// Package sentinel holds infrastructure-level error facts. Stores return them,
// optionally wrapped, and services translate them into domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound means no persisted record exists for the requested key.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means the backing store could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
