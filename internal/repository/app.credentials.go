package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joshuarp/idempotency-api/internal/domain"
	"github.com/joshuarp/idempotency-api/internal/domain/vo"
)

type AppCredentialRepository struct {
	db *sqlx.DB
}

type appCredentialRow struct {
	AppID      string `db:"app_id"`
	SecretHash string `db:"secret_hash"`
	Status     string `db:"status"`
}

func NewAppCredentialRepository(db *sqlx.DB) *AppCredentialRepository {
	return &AppCredentialRepository{db: db}
}

// GetAppCredential returns the credential of an active application.
// Unknown and inactive applications both yield vo.ErrInvalidCredentials.
func (r *AppCredentialRepository) GetAppCredential(ctx context.Context, appID string) (domain.AppCredential, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return domain.AppCredential{}, vo.ErrInvalidCredentials
	}

	const query = `
		SELECT app_id, secret_hash, status
		FROM app_credentials
		WHERE app_id = $1
		LIMIT 1
	`

	var row appCredentialRow
	if err := r.db.GetContext(ctx, &row, query, appID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AppCredential{}, vo.ErrInvalidCredentials
		}
		return domain.AppCredential{}, fmt.Errorf("repository: get app credential failed: %w", err)
	}

	credential := domain.AppCredential{
		AppID:      row.AppID,
		SecretHash: row.SecretHash,
		Status:     row.Status,
	}
	if !credential.Active() {
		return domain.AppCredential{}, vo.ErrInvalidCredentials
	}

	return credential, nil
}
