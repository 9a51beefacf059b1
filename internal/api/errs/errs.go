// Package errs defines the error taxonomy shared by the services and translated
// into HTTP responses by the response package.
package errs

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("the provided credentials are incorrect")
	ErrUnauthorized       = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already taken")
)

// ValidationError carries field-level messages for rejected input.
type ValidationError struct {
	Fields map[string][]string
	cause  error
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// FieldError is a shortcut for a ValidationError with a single message.
func FieldError(field, message string) *ValidationError {
	return NewValidationError().Add(field, message)
}

// EmailTaken is the validation error returned when registering an existing email.
func EmailTaken() *ValidationError {
	v := FieldError("email", "The email has already been taken.")
	v.cause = ErrEmailTaken
	return v
}

func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// HasErrors reports whether any field message was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Message is the first field message, the summary shown to clients.
func (e *ValidationError) Message() string {
	if len(e.Fields) == 0 {
		return "The given data was invalid."
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return e.Fields[keys[0]][0]
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("; ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Fields[k], ", "))
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// AsValidation unwraps err into a ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
