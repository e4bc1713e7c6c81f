package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/otp-session-auth/internal/config"
	"github.com/iliyamo/otp-session-auth/internal/logging"
)

func limitedServer(t *testing.T, cfg config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(RateLimit(cfg, rdb, logging.Discard()))
	e.POST("/api/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.POST("/api/signup", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return e
}

func hit(e *echo.Echo, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func bucketConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            2 * time.Hour,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func TestRateLimit_BlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	e := limitedServer(t, bucketConfig(), rdb)

	require.Equal(t, http.StatusOK, hit(e, "/api/login", "10.0.0.1").Code)
	rec := hit(e, "/api/login", "10.0.0.1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = hit(e, "/api/login", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// separate buckets per client and per route
	assert.Equal(t, http.StatusOK, hit(e, "/api/login", "10.0.0.2").Code)
	assert.Equal(t, http.StatusOK, hit(e, "/api/signup", "10.0.0.1").Code)
}

func TestRateLimit_IPStrategySharesBucketAcrossRoutes(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := bucketConfig()
	cfg.KeyStrategy = "ip"
	e := limitedServer(t, cfg, rdb)

	assert.Equal(t, http.StatusOK, hit(e, "/api/login", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(e, "/api/signup", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(e, "/api/login", "10.0.0.1").Code)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	e := limitedServer(t, bucketConfig(), rdb)
	mr.Close()

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(e, "/api/login", "10.0.0.1").Code)
	}
}

func TestRateLimit_DisabledOrNoRedis(t *testing.T) {
	cfg := bucketConfig()
	e := limitedServer(t, cfg, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(e, "/api/login", "10.0.0.1").Code)
	}

	_, rdb := newRedis(t)
	cfg.Enabled = false
	e = limitedServer(t, cfg, rdb)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(e, "/api/login", "10.0.0.1").Code)
	}
}
