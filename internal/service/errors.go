package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownParameter is returned when a parameter id is not in the
	// catalog for the requested output kind.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrUnknownChannel is returned for an output not present in the layout.
	ErrUnknownChannel = errors.New("unknown output channel")
	// ErrConfirmationRequired guards destructive actions.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// ValidationError describes a user-supplied invalid value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "validation error"
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
