package idempotency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/gocql/gocql"
)

var _ Store = (*CassandraStore)(nil)

// MaxCassandraTTL is the largest TTL Cassandra accepts in USING TTL.
const MaxCassandraTTL = 630720000 * time.Second

// CQLRunner executes statements against a session. It exists so the store
// can be exercised without a cluster; GocqlRunner is the production implementation.
type CQLRunner interface {
	// ExecCAS runs a lightweight transaction. When it is not applied,
	// previous is filled with the row that blocked it.
	ExecCAS(ctx context.Context, stmt string, values []any, previous map[string]any) (bool, error)

	// Exec runs a statement without reading results.
	Exec(ctx context.Context, stmt string, values ...any) error

	Close()
}

// GocqlRunner runs statements on a gocql session.
type GocqlRunner struct {
	session *gocql.Session
}

func NewGocqlRunner(session *gocql.Session) *GocqlRunner {
	return &GocqlRunner{session: session}
}

func (r *GocqlRunner) ExecCAS(ctx context.Context, stmt string, values []any, previous map[string]any) (bool, error) {
	return r.session.Query(stmt, values...).WithContext(ctx).MapScanCAS(previous)
}

func (r *GocqlRunner) Exec(ctx context.Context, stmt string, values ...any) error {
	return r.session.Query(stmt, values...).WithContext(ctx).Exec()
}

func (r *GocqlRunner) Close() {
	r.session.Close()
}

// CassandraStore is the partitioned column-family backend. The table is
// (idempotency_key text PRIMARY KEY, status int, response text).
type CassandraStore struct {
	runner CQLRunner
	table  string
	opts   storeOptions

	claimStmt  string
	putStmt    string
	deleteStmt string
}

// NewCassandraStore creates a store for keyspace.table. Both names must
// already be validated identifiers; Config.Validate does that for New.
func NewCassandraStore(runner CQLRunner, keyspace, table string, opts ...StoreOption) *CassandraStore {
	qualified := keyspace + "." + table
	return &CassandraStore{
		runner:     runner,
		table:      qualified,
		opts:       newStoreOptions(opts),
		claimStmt:  fmt.Sprintf(`INSERT INTO %s (idempotency_key, status, response) VALUES (?, ?, ?) IF NOT EXISTS USING TTL ?`, qualified),
		putStmt:    fmt.Sprintf(`INSERT INTO %s (idempotency_key, status, response) VALUES (?, ?, ?) USING TTL ?`, qualified),
		deleteStmt: fmt.Sprintf(`DELETE FROM %s WHERE idempotency_key = ?`, qualified),
	}
}

// openCassandra accepts cassandra://host1:9042,host2:9042 with optional
// username and password in the userinfo part.
func openCassandra(_ context.Context, cfg Config, opts []StoreOption) (Store, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, configurationError(BackendCassandra, fmt.Errorf("invalid cassandra url: %w", err))
	}
	if parsed.Scheme != "cassandra" {
		return nil, configurationError(BackendCassandra, fmt.Errorf("unsupported cassandra url scheme %q", parsed.Scheme))
	}

	hosts := splitHosts(parsed.Host)
	if len(hosts) == 0 {
		return nil, configurationError(BackendCassandra, errors.New("cassandra url has no hosts"))
	}

	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum
	cluster.SerialConsistency = gocql.LocalSerial
	if parsed.User != nil {
		password, _ := parsed.User.Password()
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: parsed.User.Username(),
			Password: password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, connectivityError(BackendCassandra, "open", err)
	}

	return NewCassandraStore(NewGocqlRunner(session), cfg.Keyspace, cfg.TableName, opts...), nil
}

func splitHosts(value string) []string {
	var hosts []string
	for _, host := range strings.Split(value, ",") {
		if host = strings.TrimSpace(host); host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts
}

func (s *CassandraStore) Exists(ctx context.Context, key, appID string) (Claim, error) {
	if s == nil || s.runner == nil {
		return Claim{}, connectivityError(BackendCassandra, "exists", errors.New("store is not initialized"))
	}

	fullKey := CombineKey(key, appID)
	previous := make(map[string]any)

	applied, err := s.runner.ExecCAS(ctx, s.claimStmt,
		[]any{fullKey, int(StatusInProgress), "", ttlSeconds(s.opts.defaultTTL)},
		previous,
	)
	if err != nil {
		return Claim{}, connectivityError(BackendCassandra, "exists", err)
	}
	if applied {
		s.opts.logger.Debug("idempotency key claimed", slog.String("backend", string(BackendCassandra)), slog.String("key", fullKey))
		return createdClaim(), nil
	}

	record, err := cassandraRecord(previous)
	if err != nil {
		return Claim{}, serializationError(BackendCassandra, "exists", err)
	}
	if err := checkStored(BackendCassandra, "exists", record); err != nil {
		return Claim{}, err
	}

	return existingClaim(record), nil
}

func (s *CassandraStore) Put(ctx context.Context, key, appID string, record Record, ttl time.Duration) error {
	if s == nil || s.runner == nil {
		return connectivityError(BackendCassandra, "put", errors.New("store is not initialized"))
	}
	if err := validateRecord(BackendCassandra, "put", record); err != nil {
		return err
	}

	effective := s.opts.effectiveTTL(ttl)
	if effective > MaxCassandraTTL {
		return invalidRecordError(BackendCassandra, "put", fmt.Errorf("ttl %s exceeds %s", effective, MaxCassandraTTL))
	}

	if err := s.runner.Exec(ctx, s.putStmt,
		CombineKey(key, appID), int(record.Status), record.Response, ttlSeconds(effective),
	); err != nil {
		return connectivityError(BackendCassandra, "put", err)
	}
	return nil
}

func (s *CassandraStore) Delete(ctx context.Context, key, appID string) error {
	if s == nil || s.runner == nil {
		return connectivityError(BackendCassandra, "delete", errors.New("store is not initialized"))
	}

	if err := s.runner.Exec(ctx, s.deleteStmt, CombineKey(key, appID)); err != nil {
		return connectivityError(BackendCassandra, "delete", err)
	}
	return nil
}

func (s *CassandraStore) Close() error {
	if s == nil || s.runner == nil {
		return nil
	}
	s.runner.Close()
	return nil
}

// ttlSeconds converts ttl for USING TTL, where 0 means no expiry.
// Fractions round up so a short TTL never becomes "forever".
func ttlSeconds(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	return int(math.Ceil(ttl.Seconds()))
}

func cassandraRecord(row map[string]any) (Record, error) {
	rawStatus, ok := row["status"]
	if !ok {
		return Record{}, errors.New("existing row has no status column")
	}

	var status Status
	switch v := rawStatus.(type) {
	case int:
		status = Status(v)
	case int32:
		status = Status(v)
	case int64:
		status = Status(v)
	default:
		return Record{}, fmt.Errorf("existing row has status of type %T", rawStatus)
	}
	if !status.Valid() {
		return Record{}, fmt.Errorf("existing row has unknown %s", status)
	}

	var response string
	switch v := row["response"].(type) {
	case string:
		response = v
	case nil:
	default:
		return Record{}, fmt.Errorf("existing row has response of type %T", v)
	}

	return Record{Status: status, Response: response}, nil
}
