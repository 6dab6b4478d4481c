package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidationFailed is the sentinel matched by every *ValidationError.
var ErrValidationFailed = errors.New("configuration validation failed")

// FieldError describes one invalid setting.
type FieldError struct {
	Path    string
	Value   any
	Message string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s = %v: %s", e.Path, e.Value, e.Message)
}

// ValidationError collects every invalid setting found by Validate.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%v: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

// Is reports whether target is ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func (e *ValidationError) add(path string, value any, msg string) {
	e.Fields = append(e.Fields, FieldError{Path: path, Value: value, Message: msg})
}
