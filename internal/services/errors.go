package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/anonto42/usf-event/backend/internal/repositories"
	"github.com/anonto42/usf-event/backend/pkg/storage"
)

var (
	// ErrNotFound is returned when a referenced profile or event is absent.
	ErrNotFound = repositories.ErrNotFound
	// ErrInvalidCredentials covers unknown email, wrong password and inactive identities.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrRegistrationIncomplete means the identity was rolled back.
	ErrRegistrationIncomplete = errors.New("registration did not complete, try again")
	ErrMediaDisabled          = storage.ErrDisabled
)

// ValidationError reports form fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
