package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

var twoPerMinute = Limit{Name: "login", Requests: 2, Window: time.Minute}

func TestLimiter_DisabledAllowsEverything(t *testing.T) {
	l := NewLimiter(nil, false)
	for i := 0; i < 10; i++ {
		allowed, _, err := l.Allow(context.Background(), twoPerMinute, "ip:1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestLimiter_NilRedis(t *testing.T) {
	allowed, _, err := NewLimiter(nil, true).Allow(context.Background(), twoPerMinute, "ip:1")
	assert.ErrorIs(t, err, ErrNoLimitStore)
	assert.False(t, allowed)
}

func TestLimiter_CountsPerWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewLimiter(rdb, true)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, err := l.Allow(ctx, twoPerMinute, "ip:1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, retryAfter, err := l.Allow(ctx, twoPerMinute, "ip:1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))

	allowed, _, err = l.Allow(ctx, twoPerMinute, "ip:2")
	require.NoError(t, err)
	assert.True(t, allowed, "callers are counted separately")

	mr.FastForward(2 * time.Minute)
	allowed, _, err = l.Allow(ctx, twoPerMinute, "ip:1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiter_Handler(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewLimiter(rdb, true)

	app := fiber.New()
	app.Post("/login", l.Handler(Limit{Name: "login", Requests: 1, Window: time.Minute}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestLimiter_FailPolicy(t *testing.T) {
	l := NewLimiter(nil, true)

	app := fiber.New()
	app.Get("/open", l.Handler(Limit{Name: "open", Requests: 1, Window: time.Minute}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/closed", l.Handler(Limit{Name: "closed", Requests: 1, Window: time.Minute, Policy: FailClosed}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/closed", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
