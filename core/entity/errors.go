package entity

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/crreddy/polysis/core"
)

// Error is returned by Service operations for expected failures (bad id, missing record,
// validation..). Err is one of core.ErrInvalidID, core.ErrNotFound, *core.DuplicateError,
// *core.ValidationError or validator.ValidationErrors.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func (svc *Service) errInvalidID() error {
	return &Error{Err: core.ErrInvalidID, Message: fmt.Sprintf("Invalid %s ID", svc.kind.Name)}
}

func (svc *Service) errNotFound() error {
	return &Error{Err: core.ErrNotFound, Message: fmt.Sprintf("%s not found", svc.kind.Name)}
}

// handleError maps store & schema errors to *Error; other errors are wrapped with msg.
func (svc *Service) handleError(err error, msg string) error {
	cause := errors.Cause(err)
	switch e := cause.(type) {
	case *Error:
		return e
	case validator.ValidationErrors:
		return &Error{Err: e, Message: "Validation failed"}
	case *core.ValidationError:
		return &Error{Err: e, Message: "Validation failed"}
	}
	if cause == core.ErrNotFound {
		return svc.errNotFound()
	}
	if cause == core.ErrInvalidID {
		return svc.errInvalidID()
	}
	if dup, ok := core.IsDuplicate(err); ok {
		return &Error{Err: dup, Message: dup.Error()}
	}
	return errors.Wrap(err, msg)
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}

// IsInvalidID reports whether err comes from a malformed id.
func IsInvalidID(err error) bool {
	return errors.Is(err, core.ErrInvalidID)
}
