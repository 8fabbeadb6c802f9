package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Storage errors
	ErrNotFound = fmt.Errorf("not found")
	ErrLocked   = fmt.Errorf("resource locked by another process")

	// API and service errors
	ErrUpstream           = fmt.Errorf("upstream request failed")
	ErrTransport          = fmt.Errorf("transport failure")
	ErrRateLimited        = fmt.Errorf("rate limit exceeded")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrValidation      = fmt.Errorf("validation failed")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ValidationError collects per-field messages for a rejected payload.
//
// It unwraps to [ErrValidation] so callers can match with [errors.Is].
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an empty [ValidationError] ready for [ValidationError.Add].
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Add records a message for field. The first message for a field wins.
func (v *ValidationError) Add(field, msg string) {
	if _, ok := v.Fields[field]; !ok {
		v.Fields[field] = msg
	}
}

// Empty reports whether no field errors were recorded.
func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// Err returns v as an error, or nil when no fields were recorded.
func (v *ValidationError) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v.Fields[k]))
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(parts, "; "))
}

func (v *ValidationError) Unwrap() error {
	return ErrValidation
}

// FieldErrors extracts the per-field messages from err, if it wraps a [ValidationError].
func FieldErrors(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
