package core

import "errors"

// Error kinds surfaced at the request boundary. Storage and services wrap
// them with %w; handlers match with errors.Is.
var (
	ErrUnauthenticated         = errors.New("unauthenticated")
	ErrForbidden               = errors.New("forbidden")
	ErrNotFound                = errors.New("not found")
	ErrValidation              = errors.New("validation failed")
	ErrCategoryInUse           = errors.New("category is referenced by transactions")
	ErrInvalidReference        = errors.New("category does not belong to user")
	ErrExportFormatUnsupported = errors.New("unsupported export format")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrEmailTaken              = &ValidationError{Field: "email", Reason: "is already registered"}
)

// ValidationError describes a single malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IsRecoverable reports whether err is a user-facing error that the request
// boundary turns into a notice instead of a failure.
func IsRecoverable(err error) bool {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrCategoryInUse),
		errors.Is(err, ErrInvalidReference),
		errors.Is(err, ErrExportFormatUnsupported),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthenticated):
		return true
	}
	return false
}
