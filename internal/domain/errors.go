package domain

import "errors"

// Sentinel errors for the registry surface. Stores and handlers wrap these
// with context; callers classify with errors.Is.
var (
	// ErrNotFound means the referenced check id does not exist.
	ErrNotFound = errors.New("healthcheck not found")
	// ErrInvalidArgument means the request was structurally invalid and
	// must not be retried.
	ErrInvalidArgument = errors.New("invalid argument")
)
