package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// Token bucket state lives in a hash of {tokens, last_refill}. Times are in ms.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local data = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(data[1]) or burst
local lastRefill = tonumber(data[2]) or now

local rate = limit / window
local elapsed = math.max(0, now - lastRefill)
tokens = math.min(burst, tokens + elapsed * rate)

local allowed = 0
local retryAfter = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
else
	retryAfter = math.ceil((1 - tokens) / rate)
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'last_refill', tostring(now))
redis.call('PEXPIRE', key, window * 2)

local untilFull = math.ceil((burst - tokens) / rate)
return {allowed, math.floor(tokens), retryAfter, untilFull}
`)

var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local current = tonumber(redis.call('INCR', key))
if current == 1 then
	redis.call('PEXPIRE', key, window)
end

local ttl = tonumber(redis.call('PTTL', key))
if ttl < 0 then
	redis.call('PEXPIRE', key, window)
	ttl = window
end

if current <= limit then
	return {1, limit - current, ttl}
end
return {0, 0, ttl}
`)

// RedisStore keeps limiter state in Redis so every instance shares one budget per key.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// RedisStoreOption configures the Redis store.
type RedisStoreOption func(*RedisStore)

// WithRedisPrefix sets a prefix for all Redis keys.
func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithRedisClock overrides the time source used for token refill.
func WithRedisClock(now func() time.Time) RedisStoreOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRedisStore creates a Redis-backed limiter store. Close does not close
// the client; its owner does.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "ratelimit",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *RedisStore) Allow(ctx context.Context, key string, config Config) (Result, error) {
	if s == nil || s.client == nil {
		return Result{}, errors.New("ratelimit: redis store is not initialized")
	}

	switch config.Algorithm {
	case AlgorithmFixedWindow:
		return s.fixedWindow(ctx, s.fullKey(key), config)
	default:
		return s.tokenBucket(ctx, s.fullKey(key), config)
	}
}

func (s *RedisStore) tokenBucket(ctx context.Context, key string, config Config) (Result, error) {
	now := s.now()

	values, err := tokenBucketScript.Run(ctx, s.client, []string{key},
		config.Limit,
		config.Burst,
		config.Window.Milliseconds(),
		now.UnixMilli(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: token bucket script failed: %w", err)
	}
	if len(values) != 4 {
		return Result{}, fmt.Errorf("ratelimit: token bucket script returned %d values", len(values))
	}

	result := Result{
		Allowed:   values[0] == 1,
		Limit:     config.Limit,
		Remaining: values[1],
		ResetAt:   now.Add(time.Duration(values[3]) * time.Millisecond),
	}
	if !result.Allowed {
		result.RetryAfter = time.Duration(values[2]) * time.Millisecond
	}
	return result, nil
}

func (s *RedisStore) fixedWindow(ctx context.Context, key string, config Config) (Result, error) {
	values, err := fixedWindowScript.Run(ctx, s.client, []string{key},
		config.Limit,
		config.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: fixed window script failed: %w", err)
	}
	if len(values) != 3 {
		return Result{}, fmt.Errorf("ratelimit: fixed window script returned %d values", len(values))
	}

	ttl := time.Duration(values[2]) * time.Millisecond
	result := Result{
		Allowed:   values[0] == 1,
		Limit:     config.Limit,
		Remaining: values[1],
		ResetAt:   s.now().Add(ttl),
	}
	if !result.Allowed {
		result.RetryAfter = ttl
	}
	return result, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return errors.New("ratelimit: redis store is not initialized")
	}
	if err := s.client.Del(ctx, s.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("ratelimit: reset failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return nil
}
