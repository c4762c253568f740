package core

import "errors"

// Error taxonomy surfaced to callers; the transport adapter maps these
// onto client-visible response classes. State is never mutated before
// a failed check.
var (
	ErrForbidden  = errors.New("not authorized")
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid command")
	ErrConflict   = errors.New("conflict")
)
