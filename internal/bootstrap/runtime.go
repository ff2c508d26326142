// Package bootstrap connects the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"

	"conduit/internal/cache"
	"conduit/internal/config"
	"conduit/internal/database"
	"conduit/internal/middleware"
	"conduit/internal/models"
	"conduit/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo loads the built-in demo fixtures into an empty database.
	SeedDemo bool
}

// InitRuntime connects to the database, the optional read replica and Redis.
// The returned client is nil when Redis is not configured or unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	if _, err := database.ConnectReadReplica(cfg); err != nil {
		middleware.Logger.Warn("read replica unavailable, reading from primary", "error", err)
	}

	if err := cache.InitRedis(cfg.RedisURL); err != nil {
		middleware.Logger.Warn("redis unavailable, running without cache", "error", err)
	}
	r := cache.GetClient()

	if opts.SeedDemo {
		if err := seedDemo(context.Background(), db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// seedDemo applies the demo fixtures unless the database already has users.
func seedDemo(ctx context.Context, db *gorm.DB) error {
	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.Info("demo seed skipped, database not empty", "users", users)
		return nil
	}

	fx, err := seed.DemoFixtures()
	if err != nil {
		return err
	}
	_, err = seed.NewSeeder(db, seed.Options{}).ApplyFixtures(ctx, fx)
	return err
}
