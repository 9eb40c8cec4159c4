package source

import "errors"

var (
	// ErrNotFound marks a path that does not exist in the backend.
	ErrNotFound = errors.New("source: not found")

	// ErrPermission marks a read the backend refused.
	ErrPermission = errors.New("source: permission denied")

	// ErrMalformed marks a backend response that could not be decoded.
	ErrMalformed = errors.New("source: malformed response")
)
