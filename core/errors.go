package core

import (
	"errors"
	"fmt"
)

// Sentinel errors usable with errors.Is.
var (
	// ErrValidation matches every local argument validation failure
	ErrValidation = errors.New("invalid argument")

	// ErrInvalidResponse is returned when the envelope has no payload or it cannot be decoded
	ErrInvalidResponse = errors.New("invalid response from server")
)

// Error codes carried by *Error.
const (
	CodeInvalidArgument = "invalid-argument"
	CodeInvalidResponse = "invalid-response"
)

// Component names used to tag errors with the facade that raised them.
const (
	ComponentCache = "cache"
	ComponentMail  = "email"
	ComponentPush  = "push-notification"
	ComponentZCQL  = "zcql"
)

// Error is the structured error raised by the SDK facades. It carries a
// machine-readable code, a human-readable message and the offending value.
//
// Example:
//
//	_, err := seg.GetValue(ctx, "")
//	var cerr *core.Error
//	if errors.As(err, &cerr) {
//	    log.Printf("%s: %s (value: %v)", cerr.Code, cerr.Message, cerr.Value)
//	}
type Error struct {
	// Component is the facade that raised the error ("cache", "email", ...)
	Component string `json:"component,omitempty"`
	// Code is a machine-readable error code
	Code string `json:"code"`
	// Message is a human-readable description
	Message string `json:"message"`
	// Value is the offending input, if any
	Value any `json:"value,omitempty"`

	wrapped error
}

// NewError creates an error with the given code and offending value.
func NewError(code, message string, value any) *Error {
	return &Error{Code: code, Message: message, Value: value}
}

// Error implements the error interface
func (e *Error) Error() string {
	prefix := e.Code
	if e.Component != "" {
		prefix = e.Component + ": " + e.Code
	}
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (value: %v)", prefix, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.wrapped
}

// Is implements errors.Is
func (e *Error) Is(target error) bool {
	switch e.Code {
	case CodeInvalidArgument:
		return target == ErrValidation
	case CodeInvalidResponse:
		return target == ErrInvalidResponse
	}
	return false
}

// WithComponent returns a copy of the error tagged with component.
func (e *Error) WithComponent(component string) *Error {
	cp := *e
	cp.Component = component
	return &cp
}

// Wrap sets the underlying cause and returns e.
func (e *Error) Wrap(err error) *Error {
	e.wrapped = err
	return e
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr, true
	}
	return nil, false
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return err != nil && errors.Is(err, ErrValidation)
}

// IsComponent reports whether err is a *Error raised by component.
func IsComponent(err error, component string) bool {
	cerr, ok := AsError(err)
	return ok && cerr.Component == component
}
