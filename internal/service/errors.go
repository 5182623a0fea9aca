package service

import "errors"

var (
	// ErrValidation marks malformed or incomplete request input. The
	// wrapped message is safe to show to callers.
	ErrValidation = errors.New("validation error")

	// ErrPermissionDenied marks a request addressing a resource outside
	// the caller's grants.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound marks a request addressing a resource that does not
	// exist.
	ErrNotFound = errors.New("not found")
)
