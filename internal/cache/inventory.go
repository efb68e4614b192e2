package cache

import (
	"context"
	"strconv"
	"time"

	"socialnest/internal/observability"
)

// Every key lives under one namespace so a shared Redis can be flushed per app.
const namespace = "socialnest:"

// UserTTL bounds how stale a cached account may be.
const UserTTL = 5 * time.Minute

// UserKey holds the cached account row (without password) of userID.
func UserKey(userID uint) string {
	return namespace + "user:" + strconv.FormatUint(uint64(userID), 10)
}

// RevokedKey marks a logged-out session token.
func RevokedKey(jti string) string {
	return namespace + "revoked:" + jti
}

// Invalidate drops key. Failures only count toward the Redis error metric.
func Invalidate(ctx context.Context, key string) {
	if client == nil {
		return
	}
	if err := client.Del(ctx, key).Err(); err != nil {
		observability.RedisErrorRate.WithLabelValues("invalidate").Inc()
	}
}

// InvalidateUser drops the cached account of userID after a profile or role change.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}
