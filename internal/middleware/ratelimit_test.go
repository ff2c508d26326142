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
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCheckRateLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("bypassed environments", func(t *testing.T) {
		for _, env := range []string{"test", "development", "stress"} {
			t.Setenv("APP_ENV", env)
			allowed, err := CheckRateLimit(ctx, nil, "r", "1", 1, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed, env)
		}
	})

	t.Run("nil redis errors in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		_, err := CheckRateLimit(ctx, nil, "r", "1", 1, time.Minute)
		assert.Error(t, err)
	})

	t.Run("counts within window", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		mr, rdb := newMiniredisClient(t)

		for i := 0; i < 3; i++ {
			allowed, err := CheckRateLimit(ctx, rdb, "login", "ip:1", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := CheckRateLimit(ctx, rdb, "login", "ip:1", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)

		mr.FastForward(2 * time.Minute)
		allowed, err = CheckRateLimit(ctx, rdb, "login", "ip:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, rdb := newMiniredisClient(t)

	app := fiber.New()
	app.Post("/api/users", RateLimit(rdb, 1, time.Minute, "signup"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/users", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/users", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimitPolicies(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	tests := []struct {
		name   string
		policy FailPolicy
		want   int
	}{
		{"fail open", FailOpen, http.StatusOK},
		{"fail closed", FailClosed, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", RateLimitWithPolicy(nil, 1, time.Minute, tt.policy), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
