package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joshuarp/idempotency-api/internal/domain"
	"github.com/joshuarp/idempotency-api/internal/domain/vo"
	sharedhash "github.com/joshuarp/idempotency-api/internal/shared/hash"
	sharedjwt "github.com/joshuarp/idempotency-api/internal/shared/jwt"
	shareduid "github.com/joshuarp/idempotency-api/internal/shared/uid"
)

type AppCredentialRepository interface {
	GetAppCredential(ctx context.Context, appID string) (domain.AppCredential, error)
}

type AuthTokenConfig struct {
	TTL time.Duration
}

type AuthTokenService struct {
	repository   AppCredentialRepository
	hasher       sharedhash.Hasher
	tokenManager sharedjwt.TokenManager
	ids          shareduid.UIDGenerator
	ttl          time.Duration
	now          func() time.Time
}

func NewAuthTokenService(
	repository AppCredentialRepository,
	hasher sharedhash.Hasher,
	tokenManager sharedjwt.TokenManager,
	ids shareduid.UIDGenerator,
	cfg AuthTokenConfig,
) *AuthTokenService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &AuthTokenService{
		repository:   repository,
		hasher:       hasher,
		tokenManager: tokenManager,
		ids:          ids,
		ttl:          ttl,
		now:          time.Now,
	}
}

// IssueToken exchanges application credentials for a bearer token whose
// subject is the app id.
func (s *AuthTokenService) IssueToken(ctx context.Context, appID, appSecret string) (vo.AuthToken, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" || appSecret == "" {
		return vo.AuthToken{}, vo.ErrInvalidCredentials
	}

	credential, err := s.repository.GetAppCredential(ctx, appID)
	if err != nil {
		return vo.AuthToken{}, err
	}

	if err := s.hasher.Compare(ctx, credential.SecretHash, appSecret); err != nil {
		if errors.Is(err, sharedhash.ErrMismatch) {
			return vo.AuthToken{}, vo.ErrInvalidCredentials
		}
		return vo.AuthToken{}, fmt.Errorf("service: failed to verify app secret: %w", err)
	}

	tokenID, err := s.ids.Generate(ctx)
	if err != nil {
		return vo.AuthToken{}, fmt.Errorf("service: failed to generate token id: %w", err)
	}

	issuedAt := s.now()
	token, err := s.tokenManager.Sign(ctx, sharedjwt.Claims{
		Subject:   credential.AppID,
		ID:        tokenID,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.ttl),
	})
	if err != nil {
		return vo.AuthToken{}, fmt.Errorf("service: failed to issue token: %w", err)
	}

	return vo.AuthToken{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ttl / time.Second),
	}, nil
}
