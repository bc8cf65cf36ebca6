package echoapi

import (
	"fmt"
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/auth"
	"github.com/crreddy/polysis/core/entity"
)

const entitiesPrefix = "/api/entities/"

var (
	errRouteNotFound = newAPIError(http.StatusNotFound, "Route not found")
	errFileTooLarge  = newAPIError(http.StatusRequestEntityTooLarge, "File too large")
)

// apiError is an expected failure whose message is returned as is.
type apiError struct {
	Code    int
	Message string
	Details interface{}
}

func newAPIError(code int, msg string, details ...interface{}) *apiError {
	e := &apiError{Code: code, Message: msg}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

func (e *apiError) Error() string { return e.Message }

type errorResponse struct {
	Success *bool       `json:"success,omitempty"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Error   string      `json:"error,omitempty"` // debug only
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string
		var details interface{}

		switch origErr := errors.Cause(err).(type) {
		case *apiError:
			code, message, details = origErr.Code, origErr.Message, origErr.Details
		case *entity.Error:
			code, message = entityErrorCode(origErr), origErr.Message
			details = validationDetails(origErr.Err, translator)
		case *auth.Error:
			code, message = authErrorCode(origErr), origErr.Message
			if code == http.StatusInternalServerError {
				reportError(logger, ctx, err, message)
			}
		case validator.ValidationErrors, *core.ValidationError:
			code, message = http.StatusBadRequest, "Validation failed"
			details = validationDetails(origErr, translator)
		case *echo.HTTPError:
			code = origErr.Code
			switch code {
			case http.StatusNotFound, http.StatusMethodNotAllowed:
				code, message = errRouteNotFound.Code, errRouteNotFound.Message
			case http.StatusRequestEntityTooLarge:
				message = errFileTooLarge.Message
			default:
				message = fmt.Sprint(origErr.Message)
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = "Server error"
			reportError(logger, ctx, err, message)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		resp := errorResponse{Message: message, Details: details}
		if strings.HasPrefix(ctx.Request().URL.Path, entitiesPrefix) {
			success := false
			resp.Success = &success
		}
		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			resp.Error = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// reportError logs a server error along with the admin making the request, if any.
func reportError(logger core.Logger, ctx echo.Context, err error, message string) {
	var person core.Person
	if claims, cErr := getContextClaims(ctx); cErr == nil {
		person = claims.Person()
	}
	logger.Error(fmt.Sprintf("%s %s: %v", ctx.Request().Method, ctx.Request().URL.Path, err), errors.Wrap(err, message), person)
}

func entityErrorCode(err *entity.Error) int {
	if errors.Is(err, core.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func authErrorCode(err *auth.Error) int {
	switch err.Reason {
	case auth.ReasonInvalid:
		return http.StatusBadRequest
	case auth.ReasonForbidden:
		return http.StatusForbidden
	case auth.ReasonFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

// validationDetails renders validation failures as a {field: message} map; nil for other errors.
func validationDetails(err error, translator ut.Translator) interface{} {
	switch e := err.(type) {
	case validator.ValidationErrors:
		return core.FieldErrors(e, translator)
	case *core.ValidationError:
		if len(e.Fields) == 0 {
			if e.Err != nil {
				return map[string]string{"error": e.Err.Error()}
			}
			return nil
		}
		flds := make(map[string]string, len(e.Fields))
		for _, f := range e.Fields {
			flds[f.Field] = f.Error
		}
		return flds
	}
	return nil
}

// notFoundAs converts the not-found & bad-id errors of a legacy route to a 404 with its own label.
func notFoundAs(err error, label string) error {
	if entity.IsNotFound(err) || entity.IsInvalidID(err) {
		return newAPIError(http.StatusNotFound, label+" not found")
	}
	return err
}

// duplicateAs replaces the message of a unique index violation.
func duplicateAs(err error, msg string) error {
	var dup *core.DuplicateError
	if errors.As(err, &dup) {
		return newAPIError(http.StatusBadRequest, msg)
	}
	return err
}
