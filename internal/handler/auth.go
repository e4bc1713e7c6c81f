package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/otp-session-auth/internal/auth"
	"github.com/iliyamo/otp-session-auth/internal/middleware"
	"github.com/iliyamo/otp-session-auth/internal/session"
)

// requestTimeout bounds the store work done for one request.
const requestTimeout = 5 * time.Second

// AuthHandler serves the signup, verification, login and session endpoints.
type AuthHandler struct {
	Svc *auth.Service
	// SecureCookie marks the refresh cookie Secure.  Set outside local
	// development.
	SecureCookie bool
	// CookiePath scopes the refresh cookie, normally the API prefix.
	CookiePath string
	Logger     *slog.Logger
}

func NewAuthHandler(svc *auth.Service, secureCookie bool, cookiePath string, logger *slog.Logger) *AuthHandler {
	if cookiePath == "" {
		cookiePath = "/"
	}
	return &AuthHandler{Svc: svc, SecureCookie: secureCookie, CookiePath: cookiePath, Logger: logger}
}

// ----- DTOs -----

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

type loginReq struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type verifyReq struct {
	Recipient string `json:"recipient"`
	OTP       string `json:"otp"`
}

// Signup registers an unverified user and sends both OTPs.
func (h *AuthHandler) Signup(c echo.Context) error {
	// Bind the JSON body.  A body that does not parse is treated like one
	// with missing fields.
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, &auth.Error{Kind: auth.KindValidation, Message: "All fields are required: name, email, mobile, password"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// The service trims and validates the fields, rejects a duplicate email
	// or mobile, stores the user unverified and sends one OTP per channel.
	u, err := h.Svc.Signup(ctx, auth.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Mobile:   req.Mobile,
		Password: req.Password,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully. Please verify your email/mobile with OTP.",
		"userId":  u.ID,
	})
}

// VerifyOTP consumes an OTP and activates the owning account.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, &auth.Error{Kind: auth.KindValidation, Message: "Recipient and OTP are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := h.Svc.VerifyOTP(ctx, req.Recipient, req.OTP); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "OTP verified successfully. Your account is now active."})
}

// Login returns an access token in the body and sets the refresh cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, &auth.Error{Kind: auth.KindValidation, Message: "Identifier (email/mobile) and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// identifier may be either the email or the mobile number
	pair, err := h.Svc.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	// The refresh token only travels in the HttpOnly cookie; the body
	// carries the access token.
	h.setRefreshCookie(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Login successful",
		"accessToken": pair.AccessToken,
	})
}

// RefreshToken issues a new pair for the caller.  It sits behind
// middleware.RefreshAuth, which has already checked that the cookie's token
// is active and correctly signed.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	// The gate stores the identity it validated; without it the route was
	// mounted without RefreshAuth.
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Refresh token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	pair, err := h.Svc.Rotate(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	// Replace the cookie with the new refresh token; the old one stays
	// active until logout.
	h.setRefreshCookie(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Access token refreshed successfully",
		"accessToken": pair.AccessToken,
	})
}

// Logout revokes the cookie's refresh token and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	// A missing cookie leaves raw empty, which the service reports as 401.
	raw := ""
	if ck, err := c.Cookie(middleware.RefreshCookie); err == nil {
		raw = ck.Value
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// Revoking a token that is not active is not an error.
	if err := h.Svc.Logout(ctx, raw); err != nil {
		return h.fail(c, err)
	}
	h.clearRefreshCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Protected greets the caller identified by middleware.AccessAuth.
func (h *AuthHandler) Protected(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Access token required"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Welcome, " + id.Email + "! You have accessed a protected route.",
		"userId":  id.UserID,
	})
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, pair session.Pair) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.RefreshCookie,
		Value:    pair.RefreshToken,
		Path:     h.CookiePath,
		MaxAge:   int(h.Svc.RefreshTTL() / time.Second),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.RefreshCookie,
		Value:    "",
		Path:     h.CookiePath,
		MaxAge:   -1, // tells the browser to drop the cookie now
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// fail writes err as {"message": ...}.  Internal causes are logged, never
// returned.
func (h *AuthHandler) fail(c echo.Context, err error) error {
	status, msg := auth.Describe(err)
	if status == http.StatusInternalServerError {
		h.Logger.ErrorContext(c.Request().Context(), "request failed",
			"path", c.Path(), "error", err)
	}
	return c.JSON(status, echo.Map{"message": msg})
}
