package normalize

import (
	"errors"
	"fmt"
)

// ErrInvalid is matched by every error returned from Normalize.
var ErrInvalid = errors.New("normalize: invalid candidate")

// Error reports the first field rule that rejected a candidate.
type Error struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("normalize: %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalid.
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

func fieldError(field, format string, args ...any) *Error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}
