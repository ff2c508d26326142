package auth

import (
	"context"
	"errors"
	"time"

	"conduit/internal/cache"

	"github.com/redis/go-redis/v9"
)

// ErrRevocationUnavailable is returned when no Redis client is configured.
var ErrRevocationUnavailable = errors.New("token revocation store unavailable")

// Revocations tracks logged-out token IDs until they would expire anyway.
type Revocations struct {
	rdb *redis.Client
}

// NewRevocations creates a revocation store. rdb may be nil.
func NewRevocations(rdb *redis.Client) *Revocations {
	return &Revocations{rdb: rdb}
}

// Revoke blacklists the token's jti for its remaining lifetime.
func (r *Revocations) Revoke(ctx context.Context, claims *Claims) error {
	if r == nil || r.rdb == nil {
		return ErrRevocationUnavailable
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return ErrInvalidToken
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, cache.RevokedTokenKey(claims.ID), claims.Subject, ttl).Err()
}

// IsRevoked reports whether the jti was revoked. Lookup failures fail open.
func (r *Revocations) IsRevoked(ctx context.Context, jti string) bool {
	if r == nil || r.rdb == nil || jti == "" {
		return false
	}
	n, err := r.rdb.Exists(ctx, cache.RevokedTokenKey(jti)).Result()
	return err == nil && n > 0
}
