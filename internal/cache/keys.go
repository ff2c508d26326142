package cache

import (
	"context"
	"time"
)

const (
	tagsKey            = "tags:all"
	revokedTokenPrefix = "blacklist:"
)

// DefaultTagsTTL applies when the caller has no configured TTL.
const DefaultTagsTTL = time.Minute

// TagsKey holds the cached, sorted list of every tag name.
func TagsKey() string {
	return tagsKey
}

// RevokedTokenKey marks a logged-out token by its jti.
func RevokedTokenKey(jti string) string {
	return revokedTokenPrefix + jti
}

// Invalidate deletes key. It is a no-op without a Redis client.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateTags drops the cached tag list.
func InvalidateTags(ctx context.Context) {
	Invalidate(ctx, TagsKey())
}
