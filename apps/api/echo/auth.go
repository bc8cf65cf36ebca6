package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/auth"
	"github.com/crreddy/polysis/services/metrics"
)

type authApi struct {
	svc  *auth.Service
	conf *core.Config
}

type credentials struct {
	Email        string `json:"email"`
	OTP          string `json:"otp"`
	Password     string `json:"password"`
	RefreshToken string `json:"refreshToken"`
}

func registerAuthAPI(g *echo.Group, svc *auth.Service, limiter *RateLimiter, conf *core.Config) {
	api := authApi{svc: svc, conf: conf}

	// OTP endpoints are rate limited per client IP
	g.POST("/send-otp", api.sendOTP, limiter.Middleware)
	g.POST("/verify-otp", api.verifyOTP, limiter.Middleware)

	g.POST("/login", api.login)
	g.POST("/refresh", api.refresh)
	g.POST("/logout", api.logout)
}

// Handlers

func (api *authApi) sendOTP(ctx echo.Context) error {
	var data credentials
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.SendOTP(ctx.Request().Context(), data.Email)
	if err != nil {
		return err
	}
	metrics.RecordOTPSent()
	return ctx.JSON(http.StatusOK, res)
}

func (api *authApi) verifyOTP(ctx echo.Context) error {
	var data credentials
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.VerifyOTP(ctx.Request().Context(), data.Email, data.OTP)
	if err != nil {
		return err
	}
	api.setTokenCookie(ctx, res.Tokens.AccessToken)
	return ctx.JSON(http.StatusOK, res)
}

func (api *authApi) login(ctx echo.Context) error {
	var data credentials
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.Login(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return err
	}
	api.setTokenCookie(ctx, res.Tokens.AccessToken)
	return ctx.JSON(http.StatusOK, res)
}

func (api *authApi) refresh(ctx echo.Context) error {
	var data credentials
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.Refresh(ctx.Request().Context(), data.RefreshToken)
	if err != nil {
		return err
	}
	api.setTokenCookie(ctx, res.Tokens.AccessToken)
	return ctx.JSON(http.StatusOK, res)
}

func (api *authApi) logout(ctx echo.Context) error {
	ctx.SetCookie(&http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   api.conf.IsProd(),
	})
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Logout successful"})
}

func (api *authApi) setTokenCookie(ctx echo.Context, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(api.conf.JWTExpirationDelta.Seconds()),
		HttpOnly: true,
		Secure:   api.conf.IsProd(),
		SameSite: http.SameSiteLaxMode,
	})
}
