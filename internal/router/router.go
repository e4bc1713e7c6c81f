package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/otp-session-auth/internal/handler"
	"github.com/iliyamo/otp-session-auth/internal/middleware"
)

// RegisterRoutes registers routes outside the API prefix.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth mounts the auth endpoints under prefix.  Extra middleware
// (rate limiting) applies to the whole group.
func RegisterAuth(e *echo.Echo, prefix string, a *handler.AuthHandler, logger *slog.Logger, mw ...echo.MiddlewareFunc) {
	g := e.Group(prefix, mw...)

	g.POST("/signup", a.Signup)
	g.POST("/verify-otp", a.VerifyOTP)
	g.POST("/login", a.Login)
	g.POST("/refresh-token", a.RefreshToken, middleware.RefreshAuth(a.Svc, logger))
	g.POST("/logout", a.Logout)

	g.GET("/protected-route", a.Protected, middleware.AccessAuth(a.Svc))
}
