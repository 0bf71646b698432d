package idempotency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// claimScript returns the existing payload, or creates the in-progress record
// and returns nil. Redis runs the script atomically, so two callers can never
// both observe the key as absent.
const claimScript = `
local key = KEYS[1]
local payload = ARGV[1]
local ttl = tonumber(ARGV[2])

local existing = redis.call('GET', key)
if existing then
	return existing
end

if ttl > 0 then
	redis.call('SET', key, payload, 'PX', ttl)
else
	redis.call('SET', key, payload)
end

return false
`

// RedisStore is the cache-class backend. Records are stored as encoded blobs.
type RedisStore struct {
	client redis.UniversalClient
	opts   storeOptions
}

// NewRedisStore creates a store on top of an existing client.
func NewRedisStore(client redis.UniversalClient, opts ...StoreOption) *RedisStore {
	return &RedisStore{
		client: client,
		opts:   newStoreOptions(opts),
	}
}

func openRedis(ctx context.Context, cfg Config, opts []StoreOption) (Store, error) {
	options, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, configurationError(BackendRedis, fmt.Errorf("invalid redis url: %w", err))
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, connectivityError(BackendRedis, "open", err)
	}

	return NewRedisStore(client, opts...), nil
}

func (s *RedisStore) fullKey(key, appID string) string {
	if s.opts.keyPrefix == "" {
		return CombineKey(key, appID)
	}
	return s.opts.keyPrefix + KeyDelimiter + CombineKey(key, appID)
}

func (s *RedisStore) Exists(ctx context.Context, key, appID string) (Claim, error) {
	if s == nil || s.client == nil {
		return Claim{}, connectivityError(BackendRedis, "exists", errors.New("store is not initialized"))
	}

	payload, err := EncodeRecord(NewInProgress())
	if err != nil {
		return Claim{}, serializationError(BackendRedis, "exists", err)
	}

	fullKey := s.fullKey(key, appID)
	ttlMs := ttlMillis(s.opts.defaultTTL)

	existing, err := s.client.Eval(ctx, claimScript, []string{fullKey}, payload, ttlMs).Text()
	if errors.Is(err, redis.Nil) {
		s.opts.logger.Debug("idempotency key claimed", slog.String("backend", string(BackendRedis)), slog.String("key", fullKey))
		return createdClaim(), nil
	}
	if err != nil {
		return Claim{}, connectivityError(BackendRedis, "exists", err)
	}

	record, err := DecodeRecord([]byte(existing))
	if err != nil {
		return Claim{}, serializationError(BackendRedis, "exists", err)
	}
	if err := checkStored(BackendRedis, "exists", record); err != nil {
		return Claim{}, err
	}

	return existingClaim(record), nil
}

func (s *RedisStore) Put(ctx context.Context, key, appID string, record Record, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return connectivityError(BackendRedis, "put", errors.New("store is not initialized"))
	}
	if err := validateRecord(BackendRedis, "put", record); err != nil {
		return err
	}

	payload, err := EncodeRecord(record)
	if err != nil {
		return serializationError(BackendRedis, "put", err)
	}

	if err := s.client.Set(ctx, s.fullKey(key, appID), payload, s.opts.effectiveTTL(ttl)).Err(); err != nil {
		return connectivityError(BackendRedis, "put", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key, appID string) error {
	if s == nil || s.client == nil {
		return connectivityError(BackendRedis, "delete", errors.New("store is not initialized"))
	}

	if err := s.client.Del(ctx, s.fullKey(key, appID)).Err(); err != nil {
		return connectivityError(BackendRedis, "delete", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func ttlMillis(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	if ms := ttl.Milliseconds(); ms > 0 {
		return ms
	}
	return 1
}
