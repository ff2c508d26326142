package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by GetJSON when the key is absent or Redis is not configured.
var ErrMiss = errors.New("cache miss")

// GetJSON decodes the value stored under key into dst.
func GetJSON(ctx context.Context, key string, dst any) error {
	if client == nil {
		return ErrMiss
	}
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// SetJSON stores v under key for ttl.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}

// Aside returns the cached value for key, or calls load and caches its result.
// Cache failures never fail the read; load errors are returned as-is.
func Aside[T any](ctx context.Context, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if err := GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	_ = SetJSON(ctx, key, v, ttl)
	return v, nil
}
