package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/crreddy/polysis/apps/api/echo"
	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/auth"
	"github.com/crreddy/polysis/testutil"
)

type loginResponse struct {
	Message string           `json:"message"`
	Tokens  auth.TokenPair   `json:"tokens"`
	User    auth.UserSummary `json:"user"`
}

func signToken(t *testing.T, key, role string, expiresAt time.Time) string {
	claims := &auth.Claims{
		StandardClaims: jwt.StandardClaims{Subject: "5f1d7c3e9d3b2a0001a1b2c3", ExpiresAt: expiresAt.Unix()},
		Email:          "someone@polytechnic.test",
		Role:           role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("signToken(): %v", err)
	}
	return token
}

func tokenCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "adminToken" {
			return c
		}
	}
	return nil
}

func Test_authApi_sendOTP(t *testing.T) {
	app := setup(t)
	email := app.env.Conf.AdminEmail

	app.run(t, []httpTest{
		{
			name: "email required", method: http.MethodPost, path: "/api/auth/send-otp",
			body: marchallObj(t, echo.Map{"email": " "}), wantCode: http.StatusBadRequest, wantData: message(t, "Email is required"),
		},
		{
			name: "not the admin email", method: http.MethodPost, path: "/api/auth/send-otp",
			body: marchallObj(t, echo.Map{"email": "student@polytechnic.test"}), wantCode: http.StatusForbidden,
			wantData: message(t, "You are not authorized to login. Only admin email is allowed."),
		},
		{
			name: "invalid JSON", method: http.MethodPost, path: "/api/auth/send-otp",
			body: []byte(`{"email":`), wantCode: http.StatusBadRequest,
		},
		{
			name: "sent", method: http.MethodPost, path: "/api/auth/send-otp",
			body:     marchallObj(t, echo.Map{"email": "  ADMIN@polytechnic.test "}),
			wantData: marchallObj(t, auth.OTPSent{Message: "OTP sent successfully to your email", Email: email, ExpiresIn: "10 minutes"}),
		},
	})

	code := testutil.LastOTP(t)
	assert.Len(t, code, 6)

	// the account is created on first use
	usr, err := app.env.Services.Auth.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, "admin", usr.Username)
	assert.Equal(t, code, usr.OTPCode)
}

func Test_authApi_verifyOTP(t *testing.T) {
	app := setup(t)
	email := app.env.Conf.AdminEmail
	path := "/api/auth/verify-otp"
	verify := func(email, otp string) []byte { return marchallObj(t, echo.Map{"email": email, "otp": otp}) }

	app.run(t, []httpTest{
		{name: "otp required", method: http.MethodPost, path: path, body: verify(email, ""), wantCode: http.StatusBadRequest, wantData: message(t, "Email and OTP are required")},
		{name: "not the admin email", method: http.MethodPost, path: path, body: verify("lol@polytechnic.test", "123456"), wantCode: http.StatusForbidden, wantData: message(t, "Unauthorized access")},
		{name: "unknown admin", method: http.MethodPost, path: path, body: verify(email, "123456"), wantCode: http.StatusUnauthorized, wantData: message(t, "User not found")},
	})

	rec := app.do(newRequest(http.MethodPost, "/api/auth/send-otp", marchallObj(t, echo.Map{"email": email})))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	code := testutil.LastOTP(t)
	wrong := "000000" // codes start at 100000

	app.run(t, []httpTest{
		{name: "wrong code", method: http.MethodPost, path: path, body: verify(email, wrong), wantCode: http.StatusUnauthorized, wantData: message(t, "Invalid OTP. Please try again.")},
	})

	rec = app.do(newRequest(http.MethodPost, path, verify(email, code)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res loginResponse
	decodeBody(t, rec, &res)
	assert.Equal(t, "Login successful", res.Message)
	assert.Equal(t, email, res.User.Email)
	assert.Equal(t, auth.RoleAdmin, res.User.Role)
	assert.Equal(t, []string{auth.BranchAll}, res.User.ManagedBranches)
	assert.NotEmpty(t, res.Tokens.RefreshToken)

	claims, err := app.env.Services.Auth.Tokens().ParseAccess(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)
	assert.Equal(t, auth.RoleClaimAdmin, claims.Role)

	cookie := tokenCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, res.Tokens.AccessToken, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, int(app.env.Conf.JWTExpirationDelta.Seconds()), cookie.MaxAge)

	// codes are single use
	app.run(t, []httpTest{
		{name: "code reused", method: http.MethodPost, path: path, body: verify(email, code), wantCode: http.StatusUnauthorized, wantData: message(t, "No OTP found. Please request a new one.")},
	})
}

func Test_authApi_login(t *testing.T) {
	app := setup(t)
	email := app.env.Conf.AdminEmail
	path := "/api/auth/login"
	login := func(email, pwd string) []byte { return marchallObj(t, echo.Map{"email": email, "password": pwd}) }

	app.run(t, []httpTest{
		{name: "password required", method: http.MethodPost, path: path, body: login(email, ""), wantCode: http.StatusBadRequest, wantData: message(t, "Email and password are required")},
		{name: "no admin yet", method: http.MethodPost, path: path, body: login(email, testutil.AdminPassword), wantCode: http.StatusUnauthorized, wantData: message(t, "Invalid credentials")},
	})

	app.env.CreateAdmin(t)

	app.run(t, []httpTest{
		{name: "not the admin email", method: http.MethodPost, path: path, body: login("lol@polytechnic.test", testutil.AdminPassword), wantCode: http.StatusForbidden, wantData: message(t, "Unauthorized access")},
		{name: "wrong password", method: http.MethodPost, path: path, body: login(email, "Wr0ng!pass"), wantCode: http.StatusUnauthorized, wantData: message(t, "Invalid credentials")},
	})

	rec := app.do(newRequest(http.MethodPost, path, login(email, testutil.AdminPassword)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res loginResponse
	decodeBody(t, rec, &res)
	assert.Equal(t, "Login successful", res.Message)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.NotNil(t, tokenCookie(rec))

	usr, err := app.env.Services.Auth.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	assert.NotNil(t, usr.LastLogin)
}

func Test_authApi_refresh(t *testing.T) {
	app := setup(t)
	usr := app.env.CreateAdmin(t)
	pair, err := app.env.Services.Auth.Tokens().Generate(usr)
	require.NoError(t, err)
	path := "/api/auth/refresh"

	app.run(t, []httpTest{
		{name: "token required", method: http.MethodPost, path: path, body: []byte(`{}`), wantCode: http.StatusBadRequest, wantData: message(t, "Refresh token is required")},
		{name: "garbage", method: http.MethodPost, path: path, body: marchallObj(t, echo.Map{"refreshToken": "lol"}), wantCode: http.StatusUnauthorized, wantData: message(t, "Invalid refresh token")},
		{
			name: "access token is not a refresh token", method: http.MethodPost, path: path,
			body: marchallObj(t, echo.Map{"refreshToken": pair.AccessToken}), wantCode: http.StatusUnauthorized, wantData: message(t, "Invalid refresh token"),
		},
	})

	rec := app.do(newRequest(http.MethodPost, path, marchallObj(t, echo.Map{"refreshToken": pair.RefreshToken})))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Message string         `json:"message"`
		Tokens  auth.TokenPair `json:"tokens"`
	}
	decodeBody(t, rec, &res)
	assert.Equal(t, "Token refreshed", res.Message)

	claims, err := app.env.Services.Auth.Tokens().ParseAccess(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, usr.ID.Hex(), claims.Subject)
}

func Test_authApi_logout(t *testing.T) {
	app := setup(t)

	rec := app.do(newRequest(http.MethodPost, "/api/auth/logout"))
	checkCodeAndData(t, httpTest{wantData: message(t, "Logout successful")}, rec)

	cookie := tokenCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.MaxAge < 0)
}

func Test_authMiddleware(t *testing.T) {
	app := setup(t)
	conf := app.env.Conf
	path := "/api/students"

	app.run(t, []httpTest{
		{name: "no token", path: path, wantCode: http.StatusUnauthorized, wantData: message(t, "No token provided")},
		{name: "malformed token", path: path, token: "lol", wantCode: http.StatusUnauthorized, wantData: message(t, "Invalid token")},
		{
			name: "wrong key", path: path, token: signToken(t, "not-the-key", auth.RoleClaimAdmin, time.Now().Add(time.Hour)),
			wantCode: http.StatusUnauthorized, wantData: message(t, "Invalid token"),
		},
		{
			name: "expired", path: path, token: signToken(t, conf.SecretKey, auth.RoleClaimAdmin, time.Now().Add(-time.Minute)),
			wantCode: http.StatusUnauthorized, wantData: message(t, "Token expired"),
		},
		{name: "valid", path: path, token: app.env.AdminToken(t)},
	})

	t.Run("cookie", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, path)
		req.AddCookie(&http.Cookie{Name: "adminToken", Value: signToken(t, conf.SecretKey, auth.RoleClaimAdmin, time.Now().Add(time.Hour))})
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, app.do(req, rec))
	})
}

func Test_requireRole(t *testing.T) {
	app := setup(t)
	staff := signToken(t, app.env.Conf.SecretKey, "staff", time.Now().Add(time.Hour))
	body := marchallObj(t, echo.Map{"code": "CSE", "name": "Computer Science"})

	app.run(t, []httpTest{
		{
			name: "admin role required", method: http.MethodPost, path: "/api/entities/branch/create", body: body, token: staff,
			wantCode: http.StatusForbidden, wantData: entityFailure(t, "Forbidden: Required role admin"),
		},
		// legacy routes only need a valid token
		{name: "legacy route", method: http.MethodPost, path: "/api/branches", body: body, token: staff, wantCode: http.StatusCreated},
	})
}

func Test_otpRateLimit(t *testing.T) {
	app := setup(t, withLimiter(NewRateLimiter(1, 2)))
	body := marchallObj(t, echo.Map{"email": app.env.Conf.AdminEmail})

	app.run(t, []httpTest{
		{name: "first", method: http.MethodPost, path: "/api/auth/send-otp", body: body},
		{name: "second", method: http.MethodPost, path: "/api/auth/send-otp", body: body},
		{
			name: "over the limit", method: http.MethodPost, path: "/api/auth/send-otp", body: body,
			wantCode: http.StatusTooManyRequests, wantData: message(t, "Too many requests, please try again later."),
		},
		{
			name: "verify shares the limit", method: http.MethodPost, path: "/api/auth/verify-otp", body: body,
			wantCode: http.StatusTooManyRequests, wantData: message(t, "Too many requests, please try again later."),
		},
		// other routes are not limited
		{name: "login", method: http.MethodPost, path: "/api/auth/login", body: []byte(`{}`), wantCode: http.StatusBadRequest},
	})
}

func Test_otpRateLimit_forwardedHeaders(t *testing.T) {
	app := setup(t, withLimiter(NewRateLimiter(1, 1)))
	body := marchallObj(t, echo.Map{"email": "student@polytechnic.test"})

	send := func(remoteAddr, forwardedFor string) int {
		req, rec := newRequest(http.MethodPost, "/api/auth/send-otp", body)
		req.RemoteAddr = remoteAddr
		if forwardedFor != "" {
			req.Header.Set(echo.HeaderXForwardedFor, forwardedFor)
			req.Header.Set(echo.HeaderXRealIP, forwardedFor)
		}
		return app.do(req, rec).Code
	}

	var codes []int
	for _, ip := range []string{"", "10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		codes = append(codes, send("192.0.2.10:4000", ip))
	}
	assert.Equal(t, []int{http.StatusForbidden, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)

	// another connection, even from another port of a limited host, keys on the host only
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.10:5000", ""))
	assert.Equal(t, http.StatusForbidden, send("192.0.2.11:4000", "192.0.2.10"))
}

// brokenMailer fails every synchronous send.
type brokenMailer struct{}

func (brokenMailer) SendMessages(...*core.EmailMessage) {}
func (brokenMailer) SendMessage(*core.EmailMessage) error {
	return errors.New("sendgrid - status: 503")
}

func Test_authApi_sendOTP_mailFailure(t *testing.T) {
	app := setup(t, withMailer(brokenMailer{}))
	body := marchallObj(t, echo.Map{"email": app.env.Conf.AdminEmail})

	app.run(t, []httpTest{
		{
			name: "mail not sent", method: http.MethodPost, path: "/api/auth/send-otp", body: body,
			wantCode: http.StatusInternalServerError, wantData: message(t, "Failed to send OTP. Please try again."),
		},
	})
}
