package models

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("session invalid or expired")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrStorage            = errors.New("storage failure")
)

// ValidationError lists the offending fields. It matches ErrValidation under errors.Is.
type ValidationError struct {
	Fields []string
	Reason string
}

func NewValidationError(reason string, fields ...string) *ValidationError {
	return &ValidationError{Reason: reason, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return e.Reason + ": " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
