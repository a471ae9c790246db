package rule

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by rule construction and expansion.
var (
	ErrMissingRequiredField = errors.New("missing required field")
	ErrUnsupportedCoercion  = errors.New("unsupported coercion")
	ErrInvalidTemplate      = errors.New("invalid time template")
	ErrInvalidTimestamp     = errors.New("invalid timestamp")
)

// MissingFieldError names the node and key of an absent or empty required field.
type MissingFieldError struct {
	Node  string
	Key   string
	Empty bool
}

func (e *MissingFieldError) Error() string {
	if e.Empty {
		return fmt.Sprintf("%s: key(%s) is empty", e.Node, e.Key)
	}
	return fmt.Sprintf("%s: key(%s) not found", e.Node, e.Key)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}

// CoercionError reports a value that cannot be converted to its declared kind.
type CoercionError struct {
	Node  string
	Key   string
	Kind  Kind
	Value any
	Err   error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: key(%s) cannot be read as %s from %#v: %v", e.Node, e.Key, e.Kind, e.Value, e.Err)
}

func (e *CoercionError) Is(target error) bool {
	return target == ErrUnsupportedCoercion
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

// TemplateError reports a path template with a directive that cannot be rendered.
type TemplateError struct {
	Template  string
	Directive string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %q: unsupported directive %q", e.Template, e.Directive)
}

func (e *TemplateError) Is(target error) bool {
	return target == ErrInvalidTemplate
}
