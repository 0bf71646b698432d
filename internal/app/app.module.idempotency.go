package app

import (
	"github.com/joshuarp/idempotency-api/internal/handlers"
	"github.com/joshuarp/idempotency-api/internal/services"
	"go.uber.org/fx"
)

func IdempotencyModule() fx.Option {
	return fx.Module("idempotency",
		fx.Provide(
			provideRedisClient,
			fx.Annotate(
				provideIdempotencyRateLimiter,
				fx.ResultTags(`name:"idempotency_rate_limiter"`),
			),
			provideIdempotencyStoreConfig,
			provideIdempotencyStore,
			provideIdempotencyRecordConfig,
			fx.Annotate(
				services.NewIdempotencyRecordService,
				fx.As(new(handlers.IdempotencyRecordService)),
			),
			handlers.NewIdempotencyRecordHandler,
		),
		fx.Invoke(registerIdempotencyLifecycle),
		fx.Invoke(registerIdempotencyRoutes),
	)
}
