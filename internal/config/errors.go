package config

import (
	"errors"
	"fmt"
)

var (
	// ErrAccess matches every *AccessError.
	ErrAccess = errors.New("configuration access denied")
	// ErrMissingField matches every *MissingFieldError.
	ErrMissingField = errors.New("required configuration field missing")
	// ErrInvalidValue matches every *ValueError.
	ErrInvalidValue = errors.New("invalid configuration value")
)

// AccessError reports configuration that was requested outside the bootstrap
// path: a Loader not built by NewLoader, a read before Load, a second Load,
// or a source file that cannot be read.
type AccessError struct {
	Reason string
	Err    error
}

func (e *AccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration access: %s: %v", e.Reason, e.Err)
	}
	return "configuration access: " + e.Reason
}

func (e *AccessError) Unwrap() error { return e.Err }

func (e *AccessError) Is(target error) bool { return target == ErrAccess }

// MissingFieldError reports a required key that is absent or empty in every source.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required configuration field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// ValueError reports a key whose value cannot be parsed or fails validation.
// Value is left empty for secrets.
type ValueError struct {
	Field string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid value for %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid value %q for %s: %v", e.Value, e.Field, e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }

func (e *ValueError) Is(target error) bool { return target == ErrInvalidValue }
