package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/otp-session-auth/internal/auth"
	"github.com/iliyamo/otp-session-auth/internal/logging"
	"github.com/iliyamo/otp-session-auth/internal/token"
)

var alice = token.Identity{UserID: "u1", Email: "a@x.com"}

// stubGate accepts "good" for both token kinds.
type stubGate struct{}

func (stubGate) Access(raw string) (token.Identity, error) {
	switch raw {
	case "":
		return token.Identity{}, &auth.Error{Kind: auth.KindUnauthorized, Message: "Access token required"}
	case "good":
		return alice, nil
	}
	return token.Identity{}, &auth.Error{Kind: auth.KindForbidden, Message: "Invalid or expired access token"}
}

func (stubGate) CheckRefresh(_ context.Context, raw string) (token.Identity, error) {
	switch raw {
	case "":
		return token.Identity{}, &auth.Error{Kind: auth.KindUnauthorized, Message: "Refresh token required"}
	case "good":
		return alice, nil
	case "boom":
		return token.Identity{}, &auth.Error{Kind: auth.KindInternal, Message: "Server error", Err: errors.New("disk")}
	}
	return token.Identity{}, &auth.Error{Kind: auth.KindForbidden, Message: "Invalid refresh token"}
}

func serve(mw echo.MiddlewareFunc, req *http.Request) *httptest.ResponseRecorder {
	e := echo.New()
	rec := httptest.NewRecorder()
	h := mw(func(c echo.Context) error {
		id, _ := CurrentIdentity(c)
		return c.JSON(http.StatusOK, echo.Map{"id": id.UserID, "email": id.Email})
	})
	_ = h(e.NewContext(req, rec))
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	s, _ := body["message"].(string)
	return s
}

func TestAccessAuth(t *testing.T) {
	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"scheme only", "Bearer", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusForbidden},
		{"valid token", "Bearer good", http.StatusOK},
		{"scheme is not checked", "Token good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/protected-route", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := serve(AccessAuth(stubGate{}), req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer nope")
	assert.Equal(t, "Invalid or expired access token", message(t, serve(AccessAuth(stubGate{}), req)))
}

func TestRefreshAuth(t *testing.T) {
	mw := RefreshAuth(stubGate{}, logging.Discard())

	req := httptest.NewRequest(http.MethodPost, "/api/refresh-token", nil)
	rec := serve(mw, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh token required", message(t, rec))

	for raw, status := range map[string]int{
		"stale": http.StatusForbidden,
		"boom":  http.StatusInternalServerError,
		"good":  http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/refresh-token", nil)
		req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: raw})
		rec := serve(mw, req)
		assert.Equal(t, status, rec.Code, raw)
		if status == http.StatusInternalServerError {
			assert.NotContains(t, rec.Body.String(), "disk")
		}
		if status == http.StatusOK {
			assert.Contains(t, rec.Body.String(), `"email":"a@x.com"`)
			assert.Contains(t, rec.Body.String(), `"id":"u1"`)
		}
	}
}
