package domain

import (
	"errors"
	"fmt"
)

// Input fields a validation error can point at.
const (
	FieldWeight = "weight"
	FieldHeight = "height"
)

var (
	ErrInvalidWeight = errors.New("please enter a valid weight")
	ErrInvalidHeight = errors.New("please enter a valid height")
	ErrEmptyInput    = errors.New("value is required")
	ErrNotANumber    = errors.New("value is not a number")
	ErrNotFinite     = errors.New("value must be finite")
)

// ParseError reports raw text that could not be turned into a number.
type ParseError struct {
	Field string
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %q: %v", e.Field, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError blocks a calculation. Field names the input the user must fix.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	base := ErrInvalidWeight
	if e.Field == FieldHeight {
		base = ErrInvalidHeight
	}
	if e.Reason == "" {
		return base.Error()
	}
	return fmt.Sprintf("%s: %s", base.Error(), e.Reason)
}

// Unwrap exposes both the field sentinel and the underlying cause.
func (e *ValidationError) Unwrap() []error {
	base := ErrInvalidWeight
	if e.Field == FieldHeight {
		base = ErrInvalidHeight
	}
	if e.Err == nil {
		return []error{base}
	}
	return []error{base, e.Err}
}

func invalidWeight(reason string, cause error) error {
	return &ValidationError{Field: FieldWeight, Reason: reason, Err: cause}
}

func invalidHeight(reason string, cause error) error {
	return &ValidationError{Field: FieldHeight, Reason: reason, Err: cause}
}

// InvalidField builds a ValidationError for the given field.
func InvalidField(field, reason string, cause error) error {
	if field == FieldHeight {
		return invalidHeight(reason, cause)
	}
	return invalidWeight(reason, cause)
}

// FieldOf returns the field a validation error points at, or "".
func FieldOf(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Field
	}
	return ""
}
