package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string
}

// DefaultRateLimitConfig returns default rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 120,
		Window:      time.Minute,
		KeyPrefix:   "powerread:ratelimit",
	}
}

// RateLimit applies a fixed-window limit per user, or per client IP for
// anonymous requests. It fails open when Redis is unavailable.
func RateLimit(rdb redis.Cmdable, cfg RateLimitConfig, logger *zap.Logger) fiber.Handler {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultRateLimitConfig().KeyPrefix
	}
	return func(c *fiber.Ctx) error {
		if cfg.MaxRequests <= 0 {
			return c.Next()
		}

		ctx := c.UserContext()
		key := cfg.KeyPrefix + ":" + rateLimitSubject(c)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit redis error", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			rdb.Expire(ctx, key, cfg.Window)
		}
		reset, err := rdb.PTTL(ctx, key).Result()
		if err != nil || reset < 0 {
			reset = cfg.Window
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(cfg.MaxRequests)-count), 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))

		if count > int64(cfg.MaxRequests) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(reset.Seconds())+1))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}

		return c.Next()
	}
}

func rateLimitSubject(c *fiber.Ctx) string {
	if uid, ok := UserID(c); ok {
		return "user:" + strconv.FormatUint(uint64(uid), 10)
	}
	if raw := c.Get(UserIDHeader); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
			return "user:" + raw
		}
	}
	return "ip:" + c.IP()
}
