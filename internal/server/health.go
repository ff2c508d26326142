package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// ReadinessCheck pings the database and Redis concurrently. Redis is optional:
// a server started without it reports "disabled" and stays ready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := statusHealthy
	redisStatus := statusDisabled

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(gctx)
		}
		if err != nil {
			dbStatus = statusUnhealthy
		}
		return err
	})
	if s.redis != nil {
		redisStatus = statusHealthy
		g.Go(func() error {
			err := s.redis.Ping(gctx).Err()
			if err != nil {
				redisStatus = statusUnhealthy
			}
			return err
		})
	}

	status := fiber.StatusOK
	overall := statusHealthy
	if err := g.Wait(); err != nil {
		status = fiber.StatusServiceUnavailable
		overall = statusUnhealthy
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
