package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors returned by the services. They are wrapped with context, compare
// them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrSelfSubscription   = errors.New("you cannot subscribe to yourself")
	ErrInUse              = errors.New("still referenced by recipes")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUserBlocked        = errors.New("user is blocked")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// NonFieldErrors keys messages that are not tied to one field.
const NonFieldErrors = "non_field_errors"

// ValidationError carries field scoped messages.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, message string) *ValidationError {
	ve := &ValidationError{}
	ve.Add(field, message)
	return ve
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e as an error, or nil when nothing was added.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		msg := strings.Join(e.Fields[name], " ")
		if name != "" {
			msg = name + ": " + msg
		}
		parts = append(parts, msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// reasonError attaches a user facing message to a sentinel.
type reasonError struct {
	msg string
	err error
}

func (e *reasonError) Error() string { return e.msg }
func (e *reasonError) Unwrap() error { return e.err }

// reasonf returns an error matching sentinel whose message is the formatted
// text alone.
func reasonf(sentinel error, format string, args ...any) error {
	return &reasonError{msg: fmt.Sprintf(format, args...), err: sentinel}
}

func isAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }
func isInUse(err error) bool         { return errors.Is(err, ErrInUse) }
