package idempotency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const maxClaimAttempts = 3

var (
	_ Store   = (*PostgresStore)(nil)
	_ Sweeper = (*PostgresStore)(nil)
)

// PostgresStore keeps records in a table keyed by record_key. Claims rely on
// the primary key: INSERT ... ON CONFLICT DO NOTHING creates at most one row.
type PostgresStore struct {
	db    *sqlx.DB
	table string
	opts  storeOptions
}

// NewPostgresStore creates a store on an open database. table must be a
// validated identifier; Config.Validate does that for New.
func NewPostgresStore(db *sqlx.DB, table string, opts ...StoreOption) *PostgresStore {
	return &PostgresStore{
		db:    db,
		table: table,
		opts:  newStoreOptions(opts),
	}
}

func openPostgres(ctx context.Context, cfg Config, opts []StoreOption) (Store, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.URL)
	if err != nil {
		return nil, connectivityError(BackendPostgres, "open", err)
	}
	return NewPostgresStore(db, cfg.TableName, opts...), nil
}

type postgresRow struct {
	Status   int    `db:"status"`
	Response string `db:"response"`
}

func (s *PostgresStore) Exists(ctx context.Context, key, appID string) (Claim, error) {
	if s == nil || s.db == nil {
		return Claim{}, connectivityError(BackendPostgres, "exists", errors.New("store is not initialized"))
	}

	fullKey := CombineKey(key, appID)

	for attempt := 1; attempt <= maxClaimAttempts; attempt++ {
		claim, found, err := s.tryClaim(ctx, fullKey)
		if err != nil {
			return Claim{}, err
		}
		if found {
			return claim, nil
		}
		s.opts.logger.Debug("idempotency winner row vanished, retrying claim",
			slog.String("backend", string(BackendPostgres)), slog.String("key", fullKey), slog.Int("attempt", attempt))
	}

	return Claim{}, connectivityError(BackendPostgres, "exists", fmt.Errorf("record kept changing during claim after %d attempts", maxClaimAttempts))
}

// tryClaim returns found=false when the conflicting row disappeared before it could be read.
func (s *PostgresStore) tryClaim(ctx context.Context, fullKey string) (Claim, bool, error) {
	now := s.opts.now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Claim{}, false, connectivityError(BackendPostgres, "exists", fmt.Errorf("failed to start transaction: %w", err))
	}
	defer tx.Rollback()

	deleteExpired := fmt.Sprintf(`
DELETE FROM %s
WHERE record_key = $1 AND expires_at IS NOT NULL AND expires_at <= $2`, s.table)

	if _, err := tx.ExecContext(ctx, deleteExpired, fullKey, now); err != nil {
		return Claim{}, false, connectivityError(BackendPostgres, "exists", fmt.Errorf("failed to drop expired record: %w", err))
	}

	insertQuery := fmt.Sprintf(`
INSERT INTO %s (record_key, status, response, expires_at, updated_at)
VALUES ($1, $2, '', $3, $4)
ON CONFLICT (record_key) DO NOTHING`, s.table)

	result, err := tx.ExecContext(ctx, insertQuery, fullKey, int(StatusInProgress), nullExpiry(now, s.opts.defaultTTL), now)
	if err != nil {
		return Claim{}, false, connectivityError(BackendPostgres, "exists", fmt.Errorf("failed to insert claim: %w", err))
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return Claim{}, false, connectivityError(BackendPostgres, "exists", fmt.Errorf("failed to read affected rows: %w", err))
	}

	if inserted == 1 {
		if err := tx.Commit(); err != nil {
			return Claim{}, false, connectivityError(BackendPostgres, "exists", fmt.Errorf("failed to commit claim: %w", err))
		}
		s.opts.logger.Debug("idempotency key claimed", slog.String("backend", string(BackendPostgres)), slog.String("key", fullKey))
		return createdClaim(), true, nil
	}

	selectQuery := fmt.Sprintf(`
SELECT status, response
FROM %s
WHERE record_key = $1`, s.table)

	var row postgresRow
	if err := tx.GetContext(ctx, &row, selectQuery, fullKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Claim{}, false, nil
		}
		return Claim{}, false, connectivityError(BackendPostgres, "exists", fmt.Errorf("failed to read existing record: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return Claim{}, false, connectivityError(BackendPostgres, "exists", fmt.Errorf("failed to commit read: %w", err))
	}

	record := Record{Status: Status(row.Status), Response: row.Response}
	if !record.Status.Valid() {
		return Claim{}, false, serializationError(BackendPostgres, "exists", fmt.Errorf("stored record has unknown %s", record.Status))
	}
	if err := checkStored(BackendPostgres, "exists", record); err != nil {
		return Claim{}, false, err
	}

	return existingClaim(record), true, nil
}

func (s *PostgresStore) Put(ctx context.Context, key, appID string, record Record, ttl time.Duration) error {
	if s == nil || s.db == nil {
		return connectivityError(BackendPostgres, "put", errors.New("store is not initialized"))
	}
	if err := validateRecord(BackendPostgres, "put", record); err != nil {
		return err
	}

	now := s.opts.now().UTC()

	upsertQuery := fmt.Sprintf(`
INSERT INTO %s (record_key, status, response, expires_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (record_key) DO UPDATE SET
	status = EXCLUDED.status,
	response = EXCLUDED.response,
	expires_at = EXCLUDED.expires_at,
	updated_at = EXCLUDED.updated_at`, s.table)

	if _, err := s.db.ExecContext(ctx, upsertQuery,
		CombineKey(key, appID), int(record.Status), record.Response, nullExpiry(now, s.opts.effectiveTTL(ttl)), now,
	); err != nil {
		return connectivityError(BackendPostgres, "put", fmt.Errorf("failed to persist record: %w", err))
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key, appID string) error {
	if s == nil || s.db == nil {
		return connectivityError(BackendPostgres, "delete", errors.New("store is not initialized"))
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE record_key = $1`, s.table)
	if _, err := s.db.ExecContext(ctx, deleteQuery, CombineKey(key, appID)); err != nil {
		return connectivityError(BackendPostgres, "delete", fmt.Errorf("failed to delete record: %w", err))
	}
	return nil
}

// Sweep deletes every expired row. Claims already ignore them, so this only reclaims space.
func (s *PostgresStore) Sweep(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, connectivityError(BackendPostgres, "sweep", errors.New("store is not initialized"))
	}

	sweepQuery := fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at <= $1`, s.table)
	result, err := s.db.ExecContext(ctx, sweepQuery, s.opts.now().UTC())
	if err != nil {
		return 0, connectivityError(BackendPostgres, "sweep", fmt.Errorf("failed to delete expired records: %w", err))
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, connectivityError(BackendPostgres, "sweep", fmt.Errorf("failed to read affected rows: %w", err))
	}
	return int(removed), nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullExpiry(now time.Time, ttl time.Duration) sql.NullTime {
	if ttl <= 0 {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: now.Add(ttl), Valid: true}
}
