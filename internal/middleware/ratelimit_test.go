package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oskarlind/microblog-api/internal/config"
)

func rateTestConfig(capacity int) config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
}

// TestTokenBucketDeniesOverCapacity drains a two-token bucket from one
// client IP and checks the third request is rejected with Retry-After.
func TestTokenBucketDeniesOverCapacity(t *testing.T) {
	rdb := newTestRedis(t)
	e := echo.New()
	e.POST("/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, NewTokenBucket(rateTestConfig(2), rdb))

	attempt := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		rec := attempt()
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	blocked := attempt()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
}

// TestTokenBucketKeysPerIP: a second client does not inherit the first
// client's drained bucket.
func TestTokenBucketKeysPerIP(t *testing.T) {
	rdb := newTestRedis(t)
	e := echo.New()
	e.POST("/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, NewTokenBucket(rateTestConfig(1), rdb))

	attempt := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, attempt("203.0.113.7:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, attempt("203.0.113.7:1234").Code)
	assert.Equal(t, http.StatusOK, attempt("198.51.100.9:1234").Code)
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	rdb := newTestRedis(t)
	cfg := rateTestConfig(1)
	cfg.Enabled = false

	e := echo.New()
	calls := 0
	e.POST("/auth/login", func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusOK)
	}, NewTokenBucket(cfg, rdb))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 3, calls)
}
