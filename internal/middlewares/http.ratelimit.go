package middlewares

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/joshuarp/idempotency-api/internal/shared/ratelimit"
)

type RateLimitConfig struct {
	Limiter      ratelimit.Limiter
	Skipper      func(c fiber.Ctx) bool
	KeyExtractor func(c fiber.Ctx) string
	Logger       *slog.Logger
}

func NewHTTPRateLimitMiddleware(cfg RateLimitConfig) fiber.Handler {
	if cfg.Limiter == nil {
		return func(c fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.Skipper == nil {
		cfg.Skipper = SkipHealthCheck
	}

	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = PerAppKeyExtractor("")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(c fiber.Ctx) error {
		if cfg.Skipper(c) {
			return c.Next()
		}

		key := cfg.KeyExtractor(c)
		result, err := cfg.Limiter.Allow(c.Context(), key)
		if err != nil {
			cfg.Logger.Error("rate limit check failed", "error", err, "key", key)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "rate limiter unavailable",
			})
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))

			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter,
			})
		}

		return c.Next()
	}
}

func SkipHealthCheck(c fiber.Ctx) bool {
	return c.Path() == "/healthz"
}

// PerAppKeyExtractor keys on the authenticated app, falling back to the client IP.
func PerAppKeyExtractor(prefix string) func(c fiber.Ctx) string {
	return func(c fiber.Ctx) string {
		key := "ip:" + c.IP()
		if appID := AppIDFromContext(c); appID != "" {
			key = "app:" + appID
		}
		if prefix != "" {
			return prefix + ":" + key
		}
		return key
	}
}

func PerIPKeyExtractor(prefix string) func(c fiber.Ctx) string {
	return func(c fiber.Ctx) string {
		if prefix != "" {
			return prefix + ":ip:" + c.IP()
		}
		return "ip:" + c.IP()
	}
}
