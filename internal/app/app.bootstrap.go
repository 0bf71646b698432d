package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/joshuarp/idempotency-api/internal/shared/config"
	sharedhash "github.com/joshuarp/idempotency-api/internal/shared/hash"
	sharedjwt "github.com/joshuarp/idempotency-api/internal/shared/jwt"
	sharedlog "github.com/joshuarp/idempotency-api/internal/shared/log"
	"go.uber.org/fx"
)

const (
	BinAuth        = "auth"
	BinIdempotency = "idempotency"
)

type configBinIn struct {
	fx.In
	Bin string `name:"bin"`
}

func New(bin string, modules ...fx.Option) *fx.App {
	opts := []fx.Option{
		fx.Supply(
			fx.Annotate(
				normalizeBin(bin),
				fx.ResultTags(`name:"bin"`),
			),
		),
		CoreModule(),
	}
	opts = append(opts, modules...)
	opts = append(opts, fx.Invoke(registerLifecycle))
	return fx.New(opts...)
}

func CoreModule() fx.Option {
	return fx.Module("core",
		fx.Provide(
			provideConfig,
			sharedlog.NewJSONLogger,
			provideFiberApp,
			provideJWTTokenManager,
			provideRouterGroups,
		),
	)
}

func normalizeBin(bin string) string {
	return strings.TrimSpace(strings.ToLower(bin))
}

func configLoadOrder(bin string) []config.Options {
	bin = normalizeBin(bin)

	loadOrder := make([]config.Options, 0, 4)
	if bin == BinAuth || bin == BinIdempotency {
		loadOrder = append(loadOrder,
			config.Options{
				YAMLPath: fmt.Sprintf("config.%s.yaml", bin),
				EnvPath:  fmt.Sprintf(".env.%s", bin),
			},
			config.Options{
				YAMLPath: fmt.Sprintf("config.%s.yaml.example", bin),
				EnvPath:  fmt.Sprintf(".env.%s.example", bin),
			},
		)
	}

	return append(loadOrder,
		config.Options{
			YAMLPath: "config.yaml",
			EnvPath:  ".env",
		},
		config.Options{
			YAMLPath: "config.yaml.example",
			EnvPath:  ".env.example",
		},
	)
}

func provideConfig(in configBinIn) (config.ConfigProvider, error) {
	var lastErr error
	for _, opts := range configLoadOrder(in.Bin) {
		provider, err := config.Init(opts)
		if err == nil {
			return provider, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func provideFiberApp(cfg config.ConfigProvider) *fiber.App {
	readTimeout := cfg.GetDuration("server.read_timeout")
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}

	writeTimeout := cfg.GetDuration("server.write_timeout")
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	return fiber.New(fiber.Config{
		AppName:      "idempotency-api",
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})
}

func provideHasher(cfg config.ConfigProvider) (sharedhash.Hasher, error) {
	return sharedhash.New(sharedhash.Options{
		Strategy: sharedhash.StrategyBcrypt,
		Cost:     cfg.GetInt("security.hash.bcrypt_cost"),
	})
}

func provideJWTTokenManager(cfg config.ConfigProvider) (sharedjwt.TokenManager, error) {
	secret := cfg.GetString("security.jwt.secret")
	if secret == "" {
		return nil, fmt.Errorf("app: security.jwt.secret is required")
	}

	algorithm := cfg.GetString("security.jwt.algorithm")
	if algorithm == "" {
		algorithm = "HS256"
	}

	tokenManager, err := sharedjwt.New(sharedjwt.Options{
		Strategy:  sharedjwt.StrategyHMAC,
		Secret:    []byte(secret),
		Algorithm: algorithm,
		TTL:       jwtTTL(cfg),
		Issuer:    cfg.GetString("security.jwt.issuer"),
		Leeway:    cfg.GetDuration("security.jwt.leeway"),
	})
	if err != nil {
		return nil, fmt.Errorf("app: failed to init JWT manager: %w", err)
	}

	return tokenManager, nil
}

func jwtTTL(cfg config.ConfigProvider) time.Duration {
	ttl := cfg.GetDuration("security.jwt.ttl")
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return ttl
}
