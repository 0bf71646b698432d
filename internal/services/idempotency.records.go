package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joshuarp/idempotency-api/internal/domain/vo"
	"github.com/joshuarp/idempotency-api/internal/shared/idempotency"
)

// MaxKeyBytes bounds caller supplied idempotency keys.
const MaxKeyBytes = 512

type IdempotencyRecordConfig struct {
	// Timeout bounds every store round trip. Defaults to 5s.
	Timeout time.Duration

	// MaxTTL caps the ttl a caller may request on Complete. Zero means no cap.
	MaxTTL time.Duration
}

type IdempotencyRecordService struct {
	store   idempotency.Store
	timeout time.Duration
	maxTTL  time.Duration
	logger  *slog.Logger
}

func NewIdempotencyRecordService(store idempotency.Store, cfg IdempotencyRecordConfig, logger *slog.Logger) *IdempotencyRecordService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &IdempotencyRecordService{
		store:   store,
		timeout: timeout,
		maxTTL:  cfg.MaxTTL,
		logger:  logger,
	}
}

// Claim atomically claims key for appID. Created is true only for the single
// caller that won the claim; everyone else receives the stored record.
func (s *IdempotencyRecordService) Claim(ctx context.Context, appID, key string) (vo.ClaimResult, error) {
	if err := validateScope(appID, key); err != nil {
		return vo.ClaimResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	claim, err := s.store.Exists(ctx, key, appID)
	if err != nil {
		s.logger.Warn("idempotency claim failed", "app_id", appID, "error", err)
		return vo.ClaimResult{}, fmt.Errorf("service: claim failed: %w", err)
	}

	if claim.Created() {
		s.logger.Debug("idempotency key claimed", "app_id", appID)
		return vo.ClaimResult{
			Created: true,
			Record:  vo.RecordView{Status: idempotency.StatusNone.String()},
		}, nil
	}

	s.logger.Debug("idempotency key already claimed", "app_id", appID, "status", claim.Record.Status.String())
	return vo.ClaimResult{Record: toRecordView(claim.Record)}, nil
}

// Complete finalizes a claimed key with the outcome of the protected operation.
func (s *IdempotencyRecordService) Complete(ctx context.Context, appID, key string, input vo.CompleteRecord) error {
	if err := validateScope(appID, key); err != nil {
		return err
	}

	status, err := idempotency.ParseStatus(strings.TrimSpace(input.Status))
	if err != nil || status != idempotency.StatusCompleted {
		return vo.ErrInvalidStatus
	}

	if input.TTL < 0 || (s.maxTTL > 0 && input.TTL > s.maxTTL) {
		return vo.ErrInvalidTTL
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Put(ctx, key, appID, idempotency.NewCompleted(input.Response), input.TTL); err != nil {
		s.logger.Warn("idempotency complete failed", "app_id", appID, "error", err)
		return fmt.Errorf("service: complete failed: %w", err)
	}
	return nil
}

// Release removes the record so that the key may be claimed again.
func (s *IdempotencyRecordService) Release(ctx context.Context, appID, key string) error {
	if err := validateScope(appID, key); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Delete(ctx, key, appID); err != nil {
		s.logger.Warn("idempotency release failed", "app_id", appID, "error", err)
		return fmt.Errorf("service: release failed: %w", err)
	}
	return nil
}

func validateScope(appID, key string) error {
	if appID == "" || strings.Contains(appID, idempotency.KeyDelimiter) {
		return vo.ErrInvalidAppID
	}
	if key == "" || len(key) > MaxKeyBytes {
		return vo.ErrInvalidKey
	}
	return nil
}

func toRecordView(record idempotency.Record) vo.RecordView {
	return vo.RecordView{
		Status:   record.Status.String(),
		Response: record.Response,
	}
}
