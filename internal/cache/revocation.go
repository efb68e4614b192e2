package cache

import (
	"context"
	"errors"
	"time"

	"socialnest/internal/observability"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned when an operation needs Redis and none is configured.
var ErrUnavailable = errors.New("redis unavailable")

// RevokeToken records jti as revoked until ttl elapses.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil {
		return ErrUnavailable
	}
	if ttl <= 0 {
		return nil
	}
	ctx, span := observability.TraceRedisOperation(ctx, "revoke_token")
	defer span.End()
	return client.Set(ctx, RevokedKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked. Without Redis nothing is revoked.
func IsRevoked(ctx context.Context, jti string) (bool, error) {
	if client == nil {
		return false, nil
	}
	_, err := client.Get(ctx, RevokedKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
