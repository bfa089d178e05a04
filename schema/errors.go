package schema

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every error reporting a broken field schema.
// A template failing with it cannot be used until its definition is fixed.
var ErrMalformed = errors.New("schema malformed")

// Error locates a schema problem by the dotted path of the offending field,
// e.g. baseFields.surveyNotes.itemTemplate.priority.
type Error struct {
	Path   string
	Reason string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrMalformed, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrMalformed, e.Path, e.Reason)
}

func (e *Error) Unwrap() error {
	return ErrMalformed
}

func errorf(path string, format string, args ...any) *Error {
	return &Error{Path: path, Reason: fmt.Sprintf(format, args...)}
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
