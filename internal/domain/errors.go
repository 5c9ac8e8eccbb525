package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrMalformedResponse       = errors.New("malformed collaborator response")
	ErrMalformedCatalog        = errors.New("malformed catalog")
	ErrRejected                = errors.New("request rejected by collaborator")
)

// ValidationError is returned for input that is refused before any
// collaborator is contacted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
