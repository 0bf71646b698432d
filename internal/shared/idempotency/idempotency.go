// Package idempotency coordinates at-most-once execution of operations identified
// by a (key, app id) pair. A Store claims a key atomically with the backend's own
// conditional write, records the outcome, and lets duplicates observe either the
// in-flight marker or the stored result. Stores are safe for concurrent use.
package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// Backend selects the storage technology behind a Store.
type Backend string

const (
	// BackendRedis is the cache-class store.
	BackendRedis Backend = "redis"

	// BackendDynamoDB is the managed wide-column store.
	BackendDynamoDB Backend = "dynamodb"

	// BackendCassandra is the partitioned column-family store.
	BackendCassandra Backend = "cassandra"

	// BackendPostgres stores records in a relational table.
	BackendPostgres Backend = "postgres"

	// BackendMemory keeps records in process memory. Claims are exclusive within one process only.
	BackendMemory Backend = "memory"
)

// ParseBackend accepts backend names and the generic kind aliases
// "cache", "wide-column" and "partitioned-column-family".
func ParseBackend(value string) (Backend, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "redis", "cache":
		return BackendRedis, nil
	case "dynamodb", "dynamo", "wide-column", "wide_column":
		return BackendDynamoDB, nil
	case "cassandra", "partitioned-column-family", "partitioned_column_family":
		return BackendCassandra, nil
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "memory", "inmemory":
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("idempotency: unknown backend %q", value)
	}
}

// ClaimOutcome tells a caller whether its Exists call created the record.
type ClaimOutcome int

const (
	// ClaimCreated means this call created the in-progress record and owns execution.
	ClaimCreated ClaimOutcome = iota + 1

	// ClaimExisting means another caller claimed the key first; Record holds what it stored.
	ClaimExisting
)

func (o ClaimOutcome) String() string {
	switch o {
	case ClaimCreated:
		return "created"
	case ClaimExisting:
		return "existing"
	default:
		return "unknown"
	}
}

// Claim is the result of Exists.
type Claim struct {
	Outcome ClaimOutcome

	// Record is StatusNone when Outcome is ClaimCreated, otherwise the
	// record as it existed before the call.
	Record Record
}

// Created reports whether the caller now owns execution.
func (c Claim) Created() bool {
	return c.Outcome == ClaimCreated
}

func createdClaim() Claim {
	return Claim{Outcome: ClaimCreated, Record: Record{Status: StatusNone}}
}

func existingClaim(record Record) Claim {
	return Claim{Outcome: ClaimExisting, Record: record}
}

// Store is the coordination contract implemented once per backend.
// Implementations must be safe for concurrent use.
type Store interface {
	// Exists claims the composite key if it is free, atomically creating an
	// in-progress record. Otherwise it returns the record that already exists.
	Exists(ctx context.Context, key, appID string) (Claim, error)

	// Put unconditionally writes record. ttl > 0 overrides the store default;
	// ttl <= 0 uses the default, and no default means no expiry.
	Put(ctx context.Context, key, appID string, record Record, ttl time.Duration) error

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, key, appID string) error

	// Close releases the backend client.
	Close() error
}

// Sweeper is implemented by backends whose expiry is not enforced by the
// storage engine itself. Sweep removes expired records and reports how many.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Config selects and configures a backend.
type Config struct {
	// Backend selects the store variant.
	Backend Backend

	// URL is the connection endpoint. Optional for BackendMemory only.
	URL string

	// TableName is the table or collection. Required by dynamodb, cassandra and postgres.
	TableName string

	// Keyspace is the namespace. Required by cassandra.
	Keyspace string

	// TTL is the default expiry for new and updated records. Zero disables expiry.
	TTL time.Duration
}

var (
	cqlIdentifier     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,47}$`)
	sqlIdentifier     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	dynamoDBTableName = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,255}$`)
)

// Validate reports missing or malformed backend-specific fields.
func (c Config) Validate() error {
	backend, err := ParseBackend(string(c.Backend))
	if err != nil {
		return err
	}

	if c.TTL < 0 {
		return fmt.Errorf("idempotency: ttl must not be negative, got %s", c.TTL)
	}

	if backend != BackendMemory && strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("idempotency: url is required for %s backend", backend)
	}

	switch backend {
	case BackendDynamoDB:
		if c.TableName == "" {
			return fmt.Errorf("idempotency: table_name is required for %s backend", backend)
		}
		if !dynamoDBTableName.MatchString(c.TableName) {
			return fmt.Errorf("idempotency: invalid dynamodb table name %q", c.TableName)
		}
	case BackendCassandra:
		if c.TableName == "" {
			return fmt.Errorf("idempotency: table_name is required for %s backend", backend)
		}
		if c.Keyspace == "" {
			return fmt.Errorf("idempotency: keyspace is required for %s backend", backend)
		}
		if !cqlIdentifier.MatchString(c.TableName) {
			return fmt.Errorf("idempotency: invalid cassandra table name %q", c.TableName)
		}
		if !cqlIdentifier.MatchString(c.Keyspace) {
			return fmt.Errorf("idempotency: invalid cassandra keyspace %q", c.Keyspace)
		}
		if c.TTL > MaxCassandraTTL {
			return fmt.Errorf("idempotency: ttl must not exceed %s for %s backend, got %s", MaxCassandraTTL, backend, c.TTL)
		}
	case BackendPostgres:
		if c.TableName == "" {
			return fmt.Errorf("idempotency: table_name is required for %s backend", backend)
		}
		if !sqlIdentifier.MatchString(c.TableName) {
			return fmt.Errorf("idempotency: invalid postgres table name %q", c.TableName)
		}
	}

	return nil
}

type storeOptions struct {
	logger     *slog.Logger
	defaultTTL time.Duration
	now        func() time.Time
	keyPrefix  string
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

// WithLogger sets the logger used for claim diagnostics.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDefaultTTL sets the expiry applied to claims and to puts without an override.
func WithDefaultTTL(ttl time.Duration) StoreOption {
	return func(o *storeOptions) {
		if ttl > 0 {
			o.defaultTTL = ttl
		}
	}
}

// WithClock replaces time.Now. Backends that compare expiry timestamps use it.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithKeyPrefix namespaces physical keys in shared key spaces (redis only).
// The physical key becomes prefix + ":" + CombineKey(key, appID), so every
// process sharing the Redis instance must use the same prefix to see the
// same records.
func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) {
		o.keyPrefix = prefix
	}
}

func newStoreOptions(opts []StoreOption) storeOptions {
	o := storeOptions{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o storeOptions) effectiveTTL(override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return o.defaultTTL
}

type opener func(ctx context.Context, cfg Config, opts []StoreOption) (Store, error)

var openers = map[Backend]opener{
	BackendRedis:     openRedis,
	BackendDynamoDB:  openDynamoDB,
	BackendCassandra: openCassandra,
	BackendPostgres:  openPostgres,
	BackendMemory:    openMemory,
}

// New validates cfg and opens the selected backend. Configuration problems are
// reported as ErrConfiguration, failures to reach the backend as ErrConnectivity.
func New(ctx context.Context, cfg Config, opts ...StoreOption) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, configurationError(cfg.Backend, err)
	}

	backend, _ := ParseBackend(string(cfg.Backend))
	cfg.Backend = backend

	open, ok := openers[backend]
	if !ok {
		return nil, configurationError(backend, fmt.Errorf("idempotency: backend %q is not supported", backend))
	}

	storeOpts := append([]StoreOption{WithDefaultTTL(cfg.TTL)}, opts...)
	return open(ctx, cfg, storeOpts)
}

// validateRecord rejects records that must never reach storage.
func validateRecord(backend Backend, op string, record Record) error {
	switch record.Status {
	case StatusInProgress:
		if record.Response != "" {
			return invalidRecordError(backend, op, fmt.Errorf("in-progress record must not carry a response"))
		}
		return nil
	case StatusCompleted:
		return nil
	case StatusNone:
		return invalidRecordError(backend, op, fmt.Errorf("records with status none are never persisted"))
	default:
		return invalidRecordError(backend, op, fmt.Errorf("unknown %s", record.Status))
	}
}

// checkStored rejects decoded records that no claim or put could have written.
func checkStored(backend Backend, op string, record Record) error {
	if record.Status == StatusNone {
		return serializationError(backend, op, fmt.Errorf("stored record has status none"))
	}
	return nil
}
