package handlers

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/joshuarp/idempotency-api/internal/domain/vo"
	"github.com/joshuarp/idempotency-api/internal/middlewares"
	"github.com/joshuarp/idempotency-api/internal/shared/idempotency"
)

type IdempotencyRecordService interface {
	Claim(ctx context.Context, appID, key string) (vo.ClaimResult, error)
	Complete(ctx context.Context, appID, key string, input vo.CompleteRecord) error
	Release(ctx context.Context, appID, key string) error
}

type IdempotencyRecordHandler struct {
	service IdempotencyRecordService
	logger  *slog.Logger
}

type completeRecordRequest struct {
	Status     string `json:"status"`
	Response   string `json:"response"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

func NewIdempotencyRecordHandler(service IdempotencyRecordService, logger *slog.Logger) *IdempotencyRecordHandler {
	return &IdempotencyRecordHandler{service: service, logger: logger}
}

func (h *IdempotencyRecordHandler) Register(router fiber.Router) {
	keys := router.Group("/idempotency/keys")
	keys.Post("/:key/claim", h.Claim)
	keys.Put("/:key", h.Complete)
	keys.Delete("/:key", h.Release)
}

func (h *IdempotencyRecordHandler) Claim(c fiber.Ctx) error {
	appID, key, ok := h.scope(c)
	if !ok {
		return nil
	}

	result, err := h.service.Claim(c.Context(), appID, key)
	if err != nil {
		return h.writeError(c, "claim", appID, err)
	}

	if result.Created {
		return c.Status(fiber.StatusCreated).JSON(result)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *IdempotencyRecordHandler) Complete(c fiber.Ctx) error {
	appID, key, ok := h.scope(c)
	if !ok {
		return nil
	}

	var requestBody completeRecordRequest
	if err := c.Bind().JSON(&requestBody); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if requestBody.TTLSeconds < 0 || requestBody.TTLSeconds > math.MaxInt64/int64(time.Second) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid ttl_seconds",
		})
	}

	err := h.service.Complete(c.Context(), appID, key, vo.CompleteRecord{
		Status:   requestBody.Status,
		Response: requestBody.Response,
		TTL:      time.Duration(requestBody.TTLSeconds) * time.Second,
	})
	if err != nil {
		return h.writeError(c, "complete", appID, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *IdempotencyRecordHandler) Release(c fiber.Ctx) error {
	appID, key, ok := h.scope(c)
	if !ok {
		return nil
	}

	if err := h.service.Release(c.Context(), appID, key); err != nil {
		return h.writeError(c, "release", appID, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// scope resolves the caller's app id and the decoded key. When it returns
// false the response has already been written.
func (h *IdempotencyRecordHandler) scope(c fiber.Ctx) (string, string, bool) {
	appID := middlewares.AppIDFromContext(c)
	if appID == "" {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing authenticated app",
		})
		return "", "", false
	}

	key, err := url.PathUnescape(c.Params("key"))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid idempotency key",
		})
		return "", "", false
	}

	return appID, key, true
}

func (h *IdempotencyRecordHandler) writeError(c fiber.Ctx, op, appID string, err error) error {
	switch {
	case errors.Is(err, vo.ErrInvalidKey):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid idempotency key"})
	case errors.Is(err, vo.ErrInvalidAppID):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "app id cannot be used for idempotency keys"})
	case errors.Is(err, vo.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be completed"})
	case errors.Is(err, vo.ErrInvalidTTL):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid ttl_seconds"})
	case errors.Is(err, idempotency.ErrInvalidRecord):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid idempotency record"})
	case errors.Is(err, idempotency.ErrConnectivity):
		h.logger.Error("idempotency store unavailable", "op", op, "app_id", appID, "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "idempotency store unavailable"})
	default:
		h.logger.Error("idempotency operation failed", "op", op, "app_id", appID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
