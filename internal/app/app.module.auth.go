package app

import (
	"fmt"

	"github.com/joshuarp/idempotency-api/internal/handlers"
	"github.com/joshuarp/idempotency-api/internal/repository"
	"github.com/joshuarp/idempotency-api/internal/services"
	"github.com/joshuarp/idempotency-api/internal/shared/config"
	shareduid "github.com/joshuarp/idempotency-api/internal/shared/uid"
	"go.uber.org/fx"
)

func AuthModule() fx.Option {
	return fx.Module("auth",
		fx.Provide(
			fx.Annotate(
				provideAuthPostgresSQLX,
				fx.ResultTags(`name:"db_auth"`),
			),
			provideHasher,
			provideUIDGenerator,
			provideAuthTokenConfig,
			fx.Annotate(
				repository.NewAppCredentialRepository,
				fx.ParamTags(`name:"db_auth"`),
				fx.As(new(services.AppCredentialRepository)),
			),
			fx.Annotate(
				services.NewAuthTokenService,
				fx.As(new(handlers.AuthTokenService)),
			),
			handlers.NewAuthTokenHandler,
		),
		fx.Invoke(registerAuthRoutes),
	)
}

func provideUIDGenerator(cfg config.ConfigProvider) (shareduid.UIDGenerator, error) {
	strategy, err := shareduid.ParseStrategy(cfg.GetString("security.jwt.id_strategy"))
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	return shareduid.New(shareduid.Options{
		Strategy: strategy,
		NodeID:   int64(cfg.GetInt("security.jwt.node_id")),
	})
}

func provideAuthTokenConfig(cfg config.ConfigProvider) services.AuthTokenConfig {
	return services.AuthTokenConfig{TTL: jwtTTL(cfg)}
}
