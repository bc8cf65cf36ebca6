package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/crreddy/polysis/core/auth"
	"github.com/crreddy/polysis/services/metrics"
)

const (
	tokenCookie     = "adminToken"
	tokenContextKey = "userToken"
)

var (
	errNoToken          = newAPIError(http.StatusUnauthorized, "No token provided")
	errTokenExpired     = newAPIError(http.StatusUnauthorized, "Token expired")
	errInvalidToken     = newAPIError(http.StatusUnauthorized, "Invalid token")
	errNotAuthenticated = newAPIError(http.StatusUnauthorized, "Not authenticated")
)

// authMiddleware verifies the access token sent in the Authorization header or, failing that,
// in the adminToken cookie.
func authMiddleware(tokens *auth.Tokens) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    tokens.AccessKey(),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(auth.Claims),
		BeforeFunc:    tokenFromCookie,
		ErrorHandlerWithContext: func(err error, _ echo.Context) error {
			if err == middleware.ErrJWTMissing {
				return errNoToken
			}
			var vErr *jwt.ValidationError
			if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
				return errTokenExpired
			}
			return errInvalidToken
		},
	})
}

// tokenFromCookie copies the adminToken cookie into the Authorization header when the latter is not set.
func tokenFromCookie(ctx echo.Context) {
	req := ctx.Request()
	if req.Header.Get(echo.HeaderAuthorization) != "" {
		return
	}
	if cookie, err := ctx.Cookie(tokenCookie); err == nil && cookie.Value != "" {
		req.Header.Set(echo.HeaderAuthorization, middleware.DefaultJWTConfig.AuthScheme+" "+cookie.Value)
	}
}

func requireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.Role != role {
				return newAPIError(http.StatusForbidden, "Forbidden: Required role "+role)
			}
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (*auth.Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*auth.Claims); ok {
			return claims, nil
		}
	}
	return nil, errNotAuthenticated
}

// contextUserID returns the id of the authenticated admin, or "System".
func contextUserID(ctx echo.Context) string {
	if claims, err := getContextClaims(ctx); err == nil && claims.Subject != "" {
		return claims.Subject
	}
	return "System"
}

// contextUserEmail returns the email of the authenticated admin, if any.
func contextUserEmail(ctx echo.Context) string {
	if claims, err := getContextClaims(ctx); err == nil {
		return claims.Email
	}
	return ""
}

// metricsMiddleware handles the error itself so that the recorded status is the one sent.
func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		done := metrics.RequestStarted()
		defer done()

		start := time.Now()
		if err := next(ctx); err != nil {
			ctx.Error(err)
		}
		metrics.RecordRequest(ctx.Request().Method, ctx.Path(), ctx.Response().Status, time.Since(start))
		return nil
	}
}

// uploadLimitMiddleware bounds the request body of upload routes; multipart overhead is allowed for.
func uploadLimitMiddleware(maxSize int64) echo.MiddlewareFunc {
	return middleware.BodyLimit(strconv.FormatInt(maxSize+1<<20, 10) + "B")
}
