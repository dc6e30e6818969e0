package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("bypassed in development", func(t *testing.T) {
		l := NewRateLimiter(nil, "development")
		allowed, err := l.Allow(context.Background(), "propose", "1", 1, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("nil redis in production errors", func(t *testing.T) {
		l := NewRateLimiter(nil, "production")
		allowed, err := l.Allow(context.Background(), "propose", "1", 1, time.Minute)
		assert.Error(t, err)
		assert.False(t, allowed)
	})

	t.Run("counts within window", func(t *testing.T) {
		mr, rdb := newMiniredisClient(t)
		l := NewRateLimiter(rdb, "production")
		ctx := context.Background()

		for i := 0; i < 2; i++ {
			allowed, err := l.Allow(ctx, "propose", "user:1", 2, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := l.Allow(ctx, "propose", "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Greater(t, mr.TTL("rl:propose:user:1"), time.Duration(0))

		mr.FastForward(2 * time.Minute)
		allowed, err = l.Allow(ctx, "propose", "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

func TestRateLimiter_Middleware(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	t.Run("FailOpen with nil redis in production", func(t *testing.T) {
		app := fiber.New()
		app.Get("/test", NewRateLimiter(nil, "production").Middleware("test", 1, time.Minute, FailOpen), ok)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("FailClosed with nil redis in production", func(t *testing.T) {
		app := fiber.New()
		app.Get("/sensitive", NewRateLimiter(nil, "production").Middleware("sensitive", 1, time.Minute, FailClosed), ok)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sensitive", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("limit exceeded returns 429", func(t *testing.T) {
		_, rdb := newMiniredisClient(t)
		app := fiber.New()
		app.Post("/propose", NewRateLimiter(rdb, "production").Middleware("propose", 1, time.Minute, FailOpen), ok)

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/propose", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/propose", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	})
}
