package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joshuarp/idempotency-api/internal/shared/config"
	sharedratelimit "github.com/joshuarp/idempotency-api/internal/shared/ratelimit"
)

func provideRedisClient(cfg config.ConfigProvider) (*redis.Client, error) {
	if url := strings.TrimSpace(cfg.GetString("redis.url")); url != "" {
		options, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("app: invalid redis.url: %w", err)
		}
		return redis.NewClient(options), nil
	}

	host := strings.TrimSpace(cfg.GetString("redis.host"))
	if host == "" {
		host = "localhost"
	}

	port := cfg.GetInt("redis.port")
	if port == 0 {
		port = 6379
	}

	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: cfg.GetString("redis.password"),
		DB:       cfg.GetInt("redis.db"),
	}), nil
}

func provideIdempotencyRateLimiter(cfg config.ConfigProvider, redisClient *redis.Client, logger *slog.Logger) (sharedratelimit.Limiter, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("app: redis client is required for idempotency rate limiter")
	}

	limit := cfg.GetInt("rate_limit.idempotency.limit")
	if limit <= 0 {
		limit = 600
	}

	window := cfg.GetDuration("rate_limit.idempotency.window")
	if window <= 0 {
		window = time.Minute
	}

	algorithm, err := sharedratelimit.ParseAlgorithm(cfg.GetString("rate_limit.idempotency.algorithm"))
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	store := sharedratelimit.NewRedisStore(redisClient, sharedratelimit.WithRedisPrefix("idempotency-api:ratelimit"))

	return sharedratelimit.New(store, sharedratelimit.Config{
		Algorithm: algorithm,
		Limit:     int64(limit),
		Window:    window,
		Burst:     int64(cfg.GetInt("rate_limit.idempotency.burst")),
		OnLimited: func(_ context.Context, key string, result sharedratelimit.Result) {
			logger.Warn("rate limit exceeded", "scope", "idempotency", "key", key, "limit", result.Limit)
		},
	})
}
