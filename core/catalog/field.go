package catalog

import (
	"strings"
)

// Field is one property of an update payload.
//
// Set reports whether the property was present in the payload at all. A set
// field with a nil Value was sent as null and clears optional columns.
type Field[T any] struct {
	Set   bool
	Value *T
}

// Some returns a set field holding v
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null returns a set field without value
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// Present returns true if the field was sent with a non-null value
func (f Field[T]) Present() bool {
	return f.Set && f.Value != nil
}

// Blank returns true if a string field is absent, null or whitespace only.
// For other types it is the negation of Present.
func (f Field[T]) Blank() bool {
	if !f.Present() {
		return true
	}
	if s, ok := any(*f.Value).(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// ValidationError is a rejected payload. Fields names the offending
// properties, Allowed the valid values for enumerated properties.
type ValidationError struct {
	Message string
	Fields  []string
	Allowed []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// MissingFieldsError returns the validation error for absent required fields
func MissingFieldsError(fields ...string) *ValidationError {
	return &ValidationError{
		Message: "Missing required fields: " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}
