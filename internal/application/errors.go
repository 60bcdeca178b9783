package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when the acting principal cannot be identified.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested event does not exist for the principal.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when the store already holds an event with the generated id.
	ErrAlreadyExists = errors.New("application: already exists")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v.FieldErrors[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ScheduleError reports a failed schedule call: a rejected record (Op
// "validate") or a failed create or update against the event store.
type ScheduleError struct {
	Op      string
	EventID string
	Err     error
}

// Error implements the error interface.
func (e *ScheduleError) Error() string {
	if e == nil {
		return ""
	}
	if e.EventID == "" {
		return fmt.Sprintf("schedule %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("schedule %s %s: %v", e.Op, e.EventID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ScheduleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
