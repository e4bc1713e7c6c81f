package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/otp-session-auth/internal/auth"
	"github.com/iliyamo/otp-session-auth/internal/token"
)

// RefreshCookie is the cookie carrying the refresh token.
const RefreshCookie = "refreshToken"

// identityKey is the context key set by the gates below.
const identityKey = "identity"

// Gate is the part of auth.Service the middleware depends on.
type Gate interface {
	Access(accessToken string) (token.Identity, error)
	CheckRefresh(ctx context.Context, refreshToken string) (token.Identity, error)
}

// AccessAuth validates a Bearer access token and stores its identity in the
// context.  A missing token is rejected with 401, an invalid one with 403.
func AccessAuth(g Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// An empty token (no header, or no second field) is reported as
			// missing; anything that fails verification as invalid.
			id, err := g.Access(bearerToken(c))
			if err != nil {
				return reject(c, err)
			}
			// Handlers read the caller through CurrentIdentity.
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// RefreshAuth requires an active, valid refresh token in the refreshToken
// cookie.  The token's identity is stored in the context.
func RefreshAuth(g Gate, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Read the refresh token from its cookie; echo returns an error
			// when the cookie is absent, which leaves raw empty.
			raw := ""
			if ck, err := c.Cookie(RefreshCookie); err == nil {
				raw = ck.Value
			}
			// The token must be in the active set and carry a valid
			// signature.  A token that fails the signature or expiry check
			// is dropped from the set as a side effect.
			id, err := g.CheckRefresh(c.Request().Context(), raw)
			if err != nil {
				if status, _ := auth.Describe(err); status == http.StatusInternalServerError {
					logger.ErrorContext(c.Request().Context(), "refresh token check failed", "error", err)
				}
				return reject(c, err)
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// CurrentIdentity returns the identity stored by AccessAuth or RefreshAuth.
func CurrentIdentity(c echo.Context) (token.Identity, bool) {
	id, ok := c.Get(identityKey).(token.Identity)
	return id, ok
}

// bearerToken returns the second whitespace-separated field of the
// Authorization header, or "" when there is none.
func bearerToken(c echo.Context) string {
	fields := strings.Fields(c.Request().Header.Get(echo.HeaderAuthorization))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func reject(c echo.Context, err error) error {
	status, msg := auth.Describe(err)
	return c.JSON(status, echo.Map{"message": msg})
}
