package common

import (
	"errors"
	"fmt"
)

// Domain error kinds. Handlers map each kind to its own response
// category, so callers must branch with errors.Is / errors.As rather
// than on message text.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Msg)
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}
