// Package cache holds the shared Redis client and the tag-aware cache-aside
// helpers built on it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"conduit/internal/observability"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

var client *redis.Client

// errorCounter counts failed commands per command name. redis.Nil is a miss,
// not a failure.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countFailure("pipeline", err)
		return err
	}
}

func countFailure(name string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrorRate.WithLabelValues(name).Inc()
	}
}

// ParseAddr accepts host:port or a redis:// / rediss:// URL.
func ParseAddr(addr string) (*redis.Options, error) {
	if !strings.Contains(addr, "://") {
		return &redis.Options{Addr: addr}, nil
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}

// Dial connects to addr and verifies the server answers PING.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := ParseAddr(addr)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	rdb.AddHook(errorCounter{})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// InitRedis sets the shared client. An empty addr leaves it nil; so does an
// unreachable server, and the error says why. Caching, revocation and
// realtime push all run without Redis.
func InitRedis(addr string) error {
	client = nil
	if addr == "" {
		return nil
	}
	rdb, err := Dial(context.Background(), addr)
	if err != nil {
		return err
	}
	client = rdb
	return nil
}

// GetClient returns the shared client, or nil.
func GetClient() *redis.Client {
	return client
}

// SetClient replaces the shared client.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(errorCounter{})
	}
	client = c
}
