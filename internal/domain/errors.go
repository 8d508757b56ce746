package domain

import "errors"

// Errors shared by every layer below the HTTP handlers. Stores translate
// driver errors into these; handlers are the only place they become status codes.
var (
	ErrValidation      = errors.New("validation failed")
	ErrTooFar          = errors.New("toilet location is too far from your position")
	ErrDuplicate       = errors.New("a toilet already exists at this location")
	ErrAlreadyVoted    = errors.New("you have already voted on this toilet")
	ErrNotFound        = errors.New("not found")
	ErrInvalidGeometry = errors.New("coordinates out of range")
	ErrUnauthorized    = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient role")
	ErrInvariant       = errors.New("invariant violation")
	ErrUnavailable     = errors.New("storage temporarily unavailable")
)

// ValidationError carries a user-facing message and matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is lets errors.Is(err, ErrValidation) succeed for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid returns a ValidationError for the given field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
