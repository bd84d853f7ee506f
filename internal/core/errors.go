package core

import "errors"

// Error taxonomy shared by storage, services and the HTTP layer. Callers wrap
// these with fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrTransientModel = errors.New("model temporarily unavailable")
	ErrFatalModel     = errors.New("model request failed")
)
