package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrForbidden         = errors.New("permission denied")
	ErrIntegrityConflict = errors.New("write conflicts with existing data")
	ErrInvalidPage       = errors.New("invalid page")
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
)

// ValidationError carries human readable messages keyed by request field.
type ValidationError struct {
	Fields map[string][]string
	cause  error
}

// NewValidationError returns an error with a single field message.
func NewValidationError(field, message string) *ValidationError {
	verr := &ValidationError{}
	verr.Add(field, message)
	return verr
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no field has failed.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// WithCause records the sentinel behind the failure so errors.Is keeps working.
func (e *ValidationError) WithCause(err error) *ValidationError {
	e.cause = err
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Fields[field], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// errOrNil avoids returning a typed nil through the error interface.
func (e *ValidationError) errOrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

// translateWriteError maps constraint violations reported by the store.
func translateWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrIntegrityConflict, err)
	default:
		return err
	}
}

func maxLengthMessage(limit int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", limit)
}
