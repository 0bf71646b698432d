// Package ratelimit throttles callers per key against a shared store.
// Implementations are safe for concurrent use.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Algorithm defines the rate limiting algorithm to use.
type Algorithm string

const (
	// AlgorithmTokenBucket refills Limit tokens per Window and allows bursts up to Burst.
	AlgorithmTokenBucket Algorithm = "token_bucket"

	// AlgorithmFixedWindow counts requests per Window. Allows bursts at window boundaries.
	AlgorithmFixedWindow Algorithm = "fixed_window"
)

// ErrEmptyKey is returned when a caller asks for a decision without a key.
var ErrEmptyKey = errors.New("ratelimit: key is required")

// ParseAlgorithm maps a configured name to an Algorithm. Empty selects the token bucket.
func ParseAlgorithm(value string) (Algorithm, error) {
	switch Algorithm(strings.TrimSpace(strings.ToLower(value))) {
	case "", AlgorithmTokenBucket:
		return AlgorithmTokenBucket, nil
	case AlgorithmFixedWindow:
		return AlgorithmFixedWindow, nil
	default:
		return "", fmt.Errorf("ratelimit: unknown algorithm %q", value)
	}
}

// Result contains the rate limit decision and metadata.
type Result struct {
	Allowed bool

	// Limit is the maximum requests per window.
	Limit int64

	// Remaining is the number of requests left before the caller is throttled.
	Remaining int64

	ResetAt time.Time

	// RetryAfter is how long a throttled caller should wait. Zero when allowed.
	RetryAfter time.Duration
}

// Config configures the rate limiter.
type Config struct {
	Algorithm Algorithm

	// Limit is the maximum number of requests allowed per window.
	Limit int64

	Window time.Duration

	// Burst caps the bucket size (token bucket only). Defaults to Limit.
	Burst int64

	// OnLimited is called when a request is rejected.
	OnLimited func(ctx context.Context, key string, result Result)
}

// Store persists limiter state.
type Store interface {
	// Allow consumes one slot for key and reports the decision.
	Allow(ctx context.Context, key string, config Config) (Result, error)

	Reset(ctx context.Context, key string) error

	Close() error
}

// Limiter decides whether a keyed request may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
	Reset(ctx context.Context, key string) error
	Close() error
}

type limiter struct {
	store  Store
	config Config
}

// New creates a rate limiter over store.
func New(store Store, config Config) (Limiter, error) {
	if store == nil {
		return nil, errors.New("ratelimit: store is required")
	}
	if config.Limit <= 0 {
		return nil, errors.New("ratelimit: limit must be positive")
	}
	if config.Window <= 0 {
		return nil, errors.New("ratelimit: window must be positive")
	}

	algorithm, err := ParseAlgorithm(string(config.Algorithm))
	if err != nil {
		return nil, err
	}
	config.Algorithm = algorithm

	if config.Burst <= 0 {
		config.Burst = config.Limit
	}

	return &limiter{store: store, config: config}, nil
}

func (l *limiter) Allow(ctx context.Context, key string) (Result, error) {
	if key == "" {
		return Result{}, ErrEmptyKey
	}

	result, err := l.store.Allow(ctx, key, l.config)
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: store error: %w", err)
	}

	if !result.Allowed && l.config.OnLimited != nil {
		l.config.OnLimited(ctx, key, result)
	}

	return result, nil
}

func (l *limiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return l.store.Reset(ctx, key)
}

func (l *limiter) Close() error {
	return l.store.Close()
}
