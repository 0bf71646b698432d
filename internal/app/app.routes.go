package app

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/joshuarp/idempotency-api/internal/handlers"
	"github.com/joshuarp/idempotency-api/internal/middlewares"
	"github.com/joshuarp/idempotency-api/internal/shared/config"
	sharedjwt "github.com/joshuarp/idempotency-api/internal/shared/jwt"
	sharedratelimit "github.com/joshuarp/idempotency-api/internal/shared/ratelimit"
	"go.uber.org/fx"
)

type routerGroupsOut struct {
	fx.Out
	Public    fiber.Router `name:"api_public"`
	Protected fiber.Router `name:"api_protected"`
}

func provideRouterGroups(
	app *fiber.App,
	cfg config.ConfigProvider,
	logger *slog.Logger,
	tokenManager sharedjwt.TokenManager,
) routerGroupsOut {
	app.Use(middlewares.NewHTTPRecoveryMiddleware(logger))
	app.Use(middlewares.NewHTTPRequestIDMiddleware())
	app.Use(middlewares.NewHTTPCORSMiddleware(cfg.GetStringSlice("server.cors.allow_origins")))
	app.Use(middlewares.NewHTTPRequestResponseLogMiddleware(logger))

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	protected := api.Group("", middlewares.NewHTTPJWTMiddleware(tokenManager))

	return routerGroupsOut{
		Public:    api,
		Protected: protected,
	}
}

type authRoutesIn struct {
	fx.In
	Public  fiber.Router `name:"api_public"`
	Handler *handlers.AuthTokenHandler
}

func registerAuthRoutes(in authRoutesIn) {
	in.Handler.Register(in.Public)
}

type idempotencyRoutesIn struct {
	fx.In
	Protected   fiber.Router            `name:"api_protected"`
	RateLimiter sharedratelimit.Limiter `name:"idempotency_rate_limiter"`
	Logger      *slog.Logger
	Handler     *handlers.IdempotencyRecordHandler
}

func registerIdempotencyRoutes(in idempotencyRoutesIn) {
	rateLimitMiddleware := middlewares.NewHTTPRateLimitMiddleware(middlewares.RateLimitConfig{
		Limiter:      in.RateLimiter,
		Logger:       in.Logger,
		KeyExtractor: middlewares.PerAppKeyExtractor("idempotency"),
	})

	in.Protected.Use("/idempotency", rateLimitMiddleware)
	in.Handler.Register(in.Protected)
}
