package schema

import (
	"errors"
	"fmt"
	"strings"
)

// FieldViolation identifies one offending field. Field is a JSON pointer
// ("/brand_scores/0/verdict"); an empty pointer refers to the whole record.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when untyped input does not satisfy a record's
// constraints: missing required field, mismatched type, enum literal outside
// its set, or an unrecognized field on a strict record.
type ValidationError struct {
	Record     string           `json:"record"`
	Violations []FieldViolation `json:"violations"`
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "validation failed"
	}
	if len(e.Violations) == 0 {
		return fmt.Sprintf("invalid %s", e.Record)
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		field := v.Field
		if field == "" {
			field = "/"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", field, v.Message))
	}
	return fmt.Sprintf("invalid %s: %s", e.Record, strings.Join(parts, "; "))
}

// Fields returns the offending field pointers in order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidationError extracts the *ValidationError wrapped by err, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func newValidationError(record string, field, message string) *ValidationError {
	return &ValidationError{
		Record:     record,
		Violations: []FieldViolation{{Field: field, Message: message}},
	}
}
