package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"socialnest/internal/models"
	"socialnest/internal/observability"

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

// ErrNoLimitStore is returned when limits are enforced without a Redis client.
var ErrNoLimitStore = errors.New("rate limit store unavailable")

// Limit is a named request budget per caller and fixed window.
type Limit struct {
	Name     string
	Requests int
	Window   time.Duration
	Policy   FailPolicy
}

// Budgets for the write endpoints.
var (
	SignupLimit  = Limit{Name: "signup", Requests: 5, Window: 10 * time.Minute}
	LoginLimit   = Limit{Name: "login", Requests: 10, Window: 5 * time.Minute}
	PostLimit    = Limit{Name: "create_post", Requests: 10, Window: time.Minute}
	CommentLimit = Limit{Name: "create_comment", Requests: 20, Window: time.Minute}
	MessageLimit = Limit{Name: "send_dm", Requests: 30, Window: time.Minute}
)

// Limiter enforces Limits with Redis counters. A disabled limiter allows
// everything, which is how development and test runs behave.
type Limiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewLimiter returns a limiter over rdb. rdb may be nil.
func NewLimiter(rdb *redis.Client, enabled bool) *Limiter {
	return &Limiter{rdb: rdb, enabled: enabled}
}

func limitKey(name, caller string) string {
	return fmt.Sprintf("rl:%s:%s", name, caller)
}

// Allow counts one request by caller against limit. retryAfter is the time
// left in the current window when the request is refused.
func (l *Limiter) Allow(ctx context.Context, limit Limit, caller string) (allowed bool, retryAfter time.Duration, err error) {
	if !l.enabled {
		return true, 0, nil
	}
	if l.rdb == nil {
		return false, 0, ErrNoLimitStore
	}

	key := limitKey(limit.Name, caller)
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err = l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, limit.Window)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("ratelimit").Inc()
		return false, 0, err
	}

	if incr.Val() <= int64(limit.Requests) {
		return true, 0, nil
	}
	return false, ttl.Val(), nil
}

// callerID keys authenticated requests by user and anonymous ones by IP.
func callerID(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
		return "user:" + strconv.FormatUint(uint64(uid), 10)
	}
	return "ip:" + c.IP()
}

// Handler returns middleware enforcing limit on the route it guards.
func (l *Limiter) Handler(limit Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, retryAfter, err := l.Allow(c.UserContext(), limit, callerID(c))
		if err != nil {
			if limit.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
					slog.String("limit", limit.Name), slog.String("error", err.Error()))
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Status: "error",
					Error:  "rate limit unavailable",
				})
			}
			return c.Next()
		}

		if !allowed {
			if retryAfter > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Status: "error",
				Error:  "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
