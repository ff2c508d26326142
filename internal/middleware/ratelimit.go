package middleware

import (
	"context"
	"fmt"
	"os"
	"time"

	"conduit/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// rateLimitBypassed reports whether APP_ENV disables throttling
// ("test", "development" or "stress").
func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

// CheckRateLimit counts one hit against resource/id in a fixed window.
// Returns true if allowed, false if the limit is exceeded.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rateLimitBypassed() {
		return true, nil
	}
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`.
// It keys by authenticated userID when set, otherwise by remote IP.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid, ok := c.Locals(LocalUserID).(uint); ok {
			id = fmt.Sprintf("user:%d", uid)
		} else {
			id = "ip:" + c.IP()
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
					"resource", resource, "path", c.Path(), "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "rate limit unavailable",
				})
			}
			return c.Next()
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
