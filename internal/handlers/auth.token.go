package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/joshuarp/idempotency-api/internal/domain/vo"
)

type AuthTokenService interface {
	IssueToken(ctx context.Context, appID, appSecret string) (vo.AuthToken, error)
}

type AuthTokenHandler struct {
	service AuthTokenService
	logger  *slog.Logger
}

type authTokenRequest struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
}

func NewAuthTokenHandler(service AuthTokenService, logger *slog.Logger) *AuthTokenHandler {
	return &AuthTokenHandler{service: service, logger: logger}
}

func (h *AuthTokenHandler) Register(router fiber.Router) {
	router.Post("/auth/token", h.Handle)
}

func (h *AuthTokenHandler) Handle(c fiber.Ctx) error {
	var requestBody authTokenRequest
	if err := c.Bind().JSON(&requestBody); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if strings.TrimSpace(requestBody.AppID) == "" || requestBody.AppSecret == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "app_id and app_secret are required",
		})
	}

	token, err := h.service.IssueToken(c.Context(), requestBody.AppID, requestBody.AppSecret)
	if err != nil {
		if errors.Is(err, vo.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid app credentials",
			})
		}

		h.logger.Error("failed to issue token", "app_id", requestBody.AppID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.Status(fiber.StatusOK).JSON(token)
}
