package model

import "errors"

// The error taxonomy shared by the store, the services and the HTTP layer.
// Callers wrap these with fmt.Errorf("%w: ...") to add detail and match them
// with errors.Is.  Each maps to one HTTP status in the handler package.
var (
	// ErrUnauthorized: the operation requires a principal and none was given.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden: the principal is known but lacks the right.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound: the addressed entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation: the payload is malformed or references a missing entity.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateKey: a uniqueness invariant would be violated.
	ErrDuplicateKey = errors.New("duplicate key")
)
