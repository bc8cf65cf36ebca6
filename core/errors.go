package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// DuplicateError is returned by a Collection when a unique index is violated.
type DuplicateError struct {
	Field string
}

func (err DuplicateError) Error() string {
	return fmt.Sprintf("%s must be unique", err.Field)
}

func IsDuplicate(err error) (*DuplicateError, bool) {
	switch e := errors.Cause(err).(type) {
	case *DuplicateError:
		return e, true
	case DuplicateError:
		return &e, true
	}
	return nil, false
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
