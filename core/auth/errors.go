package auth

import "github.com/pkg/errors"

// Reason classifies authentication failures.
type Reason int

const (
	ReasonInvalid         Reason = iota + 1 // bad input
	ReasonForbidden                         // not allowed to log in
	ReasonUnauthenticated                   // wrong or missing credentials
	ReasonFailed                            // could not be completed, the client may retry
)

// Error is an expected authentication failure; Message is safe to show to the client.
type Error struct {
	Reason  Reason
	Message string
	Err     error // cause, never shown to the client
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors of the same reason and message, whatever their cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Reason == e.Reason && t.Message == e.Message
}

func (e *Error) wrap(err error) *Error {
	return &Error{Reason: e.Reason, Message: e.Message, Err: err}
}

func newError(reason Reason, msg string) *Error {
	return &Error{Reason: reason, Message: msg}
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

var (
	ErrEmailRequired         = newError(ReasonInvalid, "Email is required")
	ErrEmailOTPRequired      = newError(ReasonInvalid, "Email and OTP are required")
	ErrEmailPasswordRequired = newError(ReasonInvalid, "Email and password are required")
	ErrRefreshTokenRequired  = newError(ReasonInvalid, "Refresh token is required")

	ErrEmailNotAllowed = newError(ReasonForbidden, "You are not authorized to login. Only admin email is allowed.")
	ErrUnauthorized    = newError(ReasonForbidden, "Unauthorized access")
	ErrAccountInactive = newError(ReasonForbidden, "Your account is inactive. Please contact administrator.")

	ErrUserNotFound        = newError(ReasonUnauthenticated, "User not found")
	ErrNoOTP               = newError(ReasonUnauthenticated, "No OTP found. Please request a new one.")
	ErrOTPExpired          = newError(ReasonUnauthenticated, "OTP has expired. Please request a new one.")
	ErrInvalidOTP          = newError(ReasonUnauthenticated, "Invalid OTP. Please try again.")
	ErrInvalidCredentials  = newError(ReasonUnauthenticated, "Invalid credentials")
	ErrInvalidRefreshToken = newError(ReasonUnauthenticated, "Invalid refresh token")
	ErrUserInactive        = newError(ReasonUnauthenticated, "User not found or inactive")

	ErrOTPNotSent = newError(ReasonFailed, "Failed to send OTP. Please try again.")
)
