package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/google/uuid"
)

// Limiter decides whether one more request from key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a sliding-window limiter over a sorted set per key, shared
// by every instance that talks to the same Redis.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "store:ratelimit:", now: time.Now}
}

// Allow records the request and rolls it back when it pushed the key over
// the limit. The trim, add and count run in one MULTI.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()
	redisKey := l.prefix + key
	member := uuid.NewString()
	windowStart := strconv.FormatInt(now.Add(-l.window).UnixMicro(), 10)

	var count *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", "("+windowStart)
		pipe.ZAdd(ctx, redisKey, &redis.Z{Score: float64(now.UnixMicro()), Member: member})
		count = pipe.ZCard(ctx, redisKey)
		pipe.PExpire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit pipeline: %w", err)
	}
	if count.Val() <= int64(l.limit) {
		return true, nil
	}
	if err := l.client.ZRem(ctx, redisKey, member).Err(); err != nil {
		return false, fmt.Errorf("rate limit rollback: %w", err)
	}
	return false, nil
}

// MemoryRateLimit limits requests per client IP in process memory. Counts are
// lost on restart and not shared between instances.
func MemoryRateLimit(limit int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c *fiber.Ctx) error {
			return apperror.RateLimited(apperror.MsgTooManyRequests)
		},
	})
}

// RateLimit limits requests per client IP. When the limiter store fails the
// request is let through and the failure logged.
func RateLimit(limiter Limiter, logger log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, err := limiter.Allow(c.UserContext(), c.IP())
		if err != nil {
			logger.Exception(c.UserContext(), "Rate limiter unavailable", err)
			return c.Next()
		}
		if !allowed {
			c.Set(fiber.HeaderRetryAfter, "60")
			return apperror.RateLimited(apperror.MsgTooManyRequests)
		}
		return c.Next()
	}
}
