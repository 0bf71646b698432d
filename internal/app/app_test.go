package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/fx"

	configmocks "github.com/joshuarp/idempotency-api/internal/mock/shared/config"
	jwtmocks "github.com/joshuarp/idempotency-api/internal/mock/shared/jwt"
	idempotencymocks "github.com/joshuarp/idempotency-api/internal/mock/shared/idempotency"
	sharedidempotency "github.com/joshuarp/idempotency-api/internal/shared/idempotency"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type AppHelpersSuite struct {
	suite.Suite

	cfg *configmocks.ConfigProvider
}

func (s *AppHelpersSuite) SetupTest() {
	s.cfg = configmocks.NewConfigProvider(s.T())
}

func (s *AppHelpersSuite) TestIsSingleBinaryBin_TableDriven() {
	tests := []struct {
		name   string
		bin    string
		expect bool
	}{
		{name: "empty is single binary", bin: "", expect: true},
		{name: "all is single binary", bin: "all", expect: true},
		{name: "mixed case all is single binary", bin: " All ", expect: true},
		{name: "auth is module binary", bin: "auth", expect: false},
		{name: "idempotency is module binary", bin: "idempotency", expect: false},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			assert.Equal(s.T(), tc.expect, isSingleBinaryBin(tc.bin))
		})
	}
}

func (s *AppHelpersSuite) TestConfigLoadOrder_TableDriven() {
	tests := []struct {
		bin   string
		first string
		count int
	}{
		{bin: "", first: "config.yaml", count: 2},
		{bin: "auth", first: "config.auth.yaml", count: 4},
		{bin: " IDEMPOTENCY ", first: "config.idempotency.yaml", count: 4},
		{bin: "unknown", first: "config.yaml", count: 2},
	}

	for _, tc := range tests {
		s.Run(tc.bin, func() {
			order := configLoadOrder(tc.bin)
			require.Len(s.T(), order, tc.count)
			assert.Equal(s.T(), tc.first, order[0].YAMLPath)
			assert.Equal(s.T(), "config.yaml.example", order[len(order)-1].YAMLPath)
		})
	}
}

func (s *AppHelpersSuite) TestModuleDBString_TableDriven() {
	tests := []struct {
		name            string
		useModuleConfig bool
		setupMock       func()
		expect          string
	}{
		{
			name:            "prefer module key",
			useModuleConfig: true,
			setupMock: func() {
				s.cfg.EXPECT().IsSet("database.auth.host").Return(true)
				s.cfg.EXPECT().GetString("database.auth.host").Return("auth-host")
			},
			expect: "auth-host",
		},
		{
			name:            "fallback to global key",
			useModuleConfig: true,
			setupMock: func() {
				s.cfg.EXPECT().IsSet("database.auth.host").Return(false)
				s.cfg.EXPECT().GetString("database.host").Return("global-host")
			},
			expect: "global-host",
		},
		{
			name:            "single binary reads global key",
			useModuleConfig: false,
			setupMock: func() {
				s.cfg.EXPECT().GetString("database.host").Return("global-host")
			},
			expect: "global-host",
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.SetupTest()
			tc.setupMock()

			assert.Equal(s.T(), tc.expect, moduleDBString(s.cfg, "auth", "host", tc.useModuleConfig))
		})
	}
}

func (s *AppHelpersSuite) TestPostgresDSN_DefaultsSSLMode() {
	s.cfg.EXPECT().GetString("database.host").Return("db.internal")
	s.cfg.EXPECT().GetInt("database.port").Return(5432)
	s.cfg.EXPECT().GetString("database.user").Return("idem")
	s.cfg.EXPECT().GetString("database.password").Return("secret")
	s.cfg.EXPECT().GetString("database.name").Return("auth")
	s.cfg.EXPECT().GetString("database.ssl_mode").Return("")

	dsn := postgresDSN(s.cfg, "all", "auth")
	assert.Equal(s.T(), "host=db.internal port=5432 user=idem password=secret dbname=auth sslmode=disable", dsn)
}

func (s *AppHelpersSuite) TestProvideFiberApp_TableDriven() {
	tests := []struct {
		name       string
		readValue  time.Duration
		writeValue time.Duration
		expRead    time.Duration
	}{
		{name: "defaults when config missing", expRead: 30 * time.Second},
		{name: "uses configured timeout", readValue: 10 * time.Second, writeValue: 12 * time.Second, expRead: 10 * time.Second},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.SetupTest()
			s.cfg.EXPECT().GetDuration("server.read_timeout").Return(tc.readValue)
			s.cfg.EXPECT().GetDuration("server.write_timeout").Return(tc.writeValue)

			fiberApp := provideFiberApp(s.cfg)
			require.NotNil(s.T(), fiberApp)
			assert.Equal(s.T(), tc.expRead, fiberApp.Config().ReadTimeout)
		})
	}
}

func (s *AppHelpersSuite) TestProvideJWTTokenManager_TableDriven() {
	tests := []struct {
		name      string
		setupMock func()
		wantErr   bool
	}{
		{
			name: "uses security jwt settings",
			setupMock: func() {
				s.cfg.EXPECT().GetString("security.jwt.secret").Return("12345678901234567890123456789012")
				s.cfg.EXPECT().GetString("security.jwt.algorithm").Return("")
				s.cfg.EXPECT().GetDuration("security.jwt.ttl").Return(15 * time.Minute)
				s.cfg.EXPECT().GetString("security.jwt.issuer").Return("idempotency-api")
				s.cfg.EXPECT().GetDuration("security.jwt.leeway").Return(5 * time.Second)
			},
		},
		{
			name: "requires a secret",
			setupMock: func() {
				s.cfg.EXPECT().GetString("security.jwt.secret").Return("")
			},
			wantErr: true,
		},
		{
			name: "rejects short secret",
			setupMock: func() {
				s.cfg.EXPECT().GetString("security.jwt.secret").Return("short")
				s.cfg.EXPECT().GetString("security.jwt.algorithm").Return("HS512")
				s.cfg.EXPECT().GetDuration("security.jwt.ttl").Return(time.Duration(0))
				s.cfg.EXPECT().GetString("security.jwt.issuer").Return("")
				s.cfg.EXPECT().GetDuration("security.jwt.leeway").Return(time.Duration(0))
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.SetupTest()
			tc.setupMock()

			manager, err := provideJWTTokenManager(s.cfg)
			if tc.wantErr {
				require.Error(s.T(), err)
				assert.Nil(s.T(), manager)
				return
			}
			require.NoError(s.T(), err)
			assert.NotNil(s.T(), manager)
		})
	}
}

func (s *AppHelpersSuite) TestProvideUIDGenerator() {
	s.cfg.EXPECT().GetString("security.jwt.id_strategy").Return("snowflake")
	s.cfg.EXPECT().GetInt("security.jwt.node_id").Return(3)

	generator, err := provideUIDGenerator(s.cfg)
	require.NoError(s.T(), err)

	id, err := generator.Generate(context.Background())
	require.NoError(s.T(), err)
	assert.NotEmpty(s.T(), id)

	s.SetupTest()
	s.cfg.EXPECT().GetString("security.jwt.id_strategy").Return("ulid")
	_, err = provideUIDGenerator(s.cfg)
	require.Error(s.T(), err)
}

func (s *AppHelpersSuite) TestProvideRedisClient_TableDriven() {
	tests := []struct {
		name      string
		setupMock func()
		expAddr   string
		expDB     int
		expPasswd string
	}{
		{
			name: "prefers redis url",
			setupMock: func() {
				s.cfg.EXPECT().GetString("redis.url").Return("redis://:topsecret@redis.internal:6380/2")
			},
			expAddr:   "redis.internal:6380",
			expDB:     2,
			expPasswd: "topsecret",
		},
		{
			name: "uses discrete settings",
			setupMock: func() {
				s.cfg.EXPECT().GetString("redis.url").Return("")
				s.cfg.EXPECT().GetString("redis.host").Return("cache")
				s.cfg.EXPECT().GetInt("redis.port").Return(6381)
				s.cfg.EXPECT().GetString("redis.password").Return("")
				s.cfg.EXPECT().GetInt("redis.db").Return(1)
			},
			expAddr: "cache:6381",
			expDB:   1,
		},
		{
			name: "uses default host and port",
			setupMock: func() {
				s.cfg.EXPECT().GetString("redis.url").Return("")
				s.cfg.EXPECT().GetString("redis.host").Return("")
				s.cfg.EXPECT().GetInt("redis.port").Return(0)
				s.cfg.EXPECT().GetString("redis.password").Return("")
				s.cfg.EXPECT().GetInt("redis.db").Return(0)
			},
			expAddr: "localhost:6379",
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.SetupTest()
			tc.setupMock()

			client, err := provideRedisClient(s.cfg)
			require.NoError(s.T(), err)
			defer client.Close()

			opts := client.Options()
			assert.Equal(s.T(), tc.expAddr, opts.Addr)
			assert.Equal(s.T(), tc.expDB, opts.DB)
			assert.Equal(s.T(), tc.expPasswd, opts.Password)
		})
	}
}

func (s *AppHelpersSuite) TestProvideIdempotencyRateLimiter() {
	server := miniredis.RunT(s.T())

	s.cfg.EXPECT().GetString("redis.url").Return("redis://" + server.Addr())
	client, err := provideRedisClient(s.cfg)
	require.NoError(s.T(), err)
	defer client.Close()

	s.cfg.EXPECT().GetInt("rate_limit.idempotency.limit").Return(1)
	s.cfg.EXPECT().GetDuration("rate_limit.idempotency.window").Return(time.Minute)
	s.cfg.EXPECT().GetString("rate_limit.idempotency.algorithm").Return("fixed_window")
	s.cfg.EXPECT().GetInt("rate_limit.idempotency.burst").Return(0)

	limiter, err := provideIdempotencyRateLimiter(s.cfg, client, discardLogger())
	require.NoError(s.T(), err)

	first, err := limiter.Allow(context.Background(), "idempotency:app:tenant-A")
	require.NoError(s.T(), err)
	assert.True(s.T(), first.Allowed)

	second, err := limiter.Allow(context.Background(), "idempotency:app:tenant-A")
	require.NoError(s.T(), err)
	assert.False(s.T(), second.Allowed)
	assert.True(s.T(), server.Exists("idempotency-api:ratelimit:idempotency:app:tenant-A"))
}

func (s *AppHelpersSuite) TestProvideIdempotencyStoreConfig_TableDriven() {
	tests := []struct {
		name      string
		setupMock func()
		assertion func(sharedidempotency.Config, error)
	}{
		{
			name: "unknown backend",
			setupMock: func() {
				s.cfg.EXPECT().GetString("idempotency.backend").Return("mongodb")
			},
			assertion: func(_ sharedidempotency.Config, err error) {
				require.Error(s.T(), err)
			},
		},
		{
			name: "dynamodb without table",
			setupMock: func() {
				s.cfg.EXPECT().GetString("idempotency.backend").Return("wide-column")
				s.cfg.EXPECT().GetString("idempotency.url").Return("http://localhost:8000")
				s.cfg.EXPECT().GetString("idempotency.table_name").Return("")
				s.cfg.EXPECT().GetString("idempotency.keyspace").Return("")
				s.cfg.EXPECT().GetDuration("idempotency.ttl").Return(time.Hour)
			},
			assertion: func(_ sharedidempotency.Config, err error) {
				require.Error(s.T(), err)
				assert.ErrorContains(s.T(), err, "table_name is required")
			},
		},
		{
			name: "cassandra alias",
			setupMock: func() {
				s.cfg.EXPECT().GetString("idempotency.backend").Return("partitioned-column-family")
				s.cfg.EXPECT().GetString("idempotency.url").Return("cassandra://10.0.0.1:9042")
				s.cfg.EXPECT().GetString("idempotency.table_name").Return("records")
				s.cfg.EXPECT().GetString("idempotency.keyspace").Return("idempotency")
				s.cfg.EXPECT().GetDuration("idempotency.ttl").Return(24 * time.Hour)
			},
			assertion: func(cfg sharedidempotency.Config, err error) {
				require.NoError(s.T(), err)
				assert.Equal(s.T(), sharedidempotency.Config{
					Backend:   sharedidempotency.BackendCassandra,
					URL:       "cassandra://10.0.0.1:9042",
					TableName: "records",
					Keyspace:  "idempotency",
					TTL:       24 * time.Hour,
				}, cfg)
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.SetupTest()
			tc.setupMock()

			cfg, err := provideIdempotencyStoreConfig(s.cfg)
			tc.assertion(cfg, err)
		})
	}
}

func (s *AppHelpersSuite) TestProvideIdempotencyStore_Memory() {
	s.cfg.EXPECT().GetDuration("idempotency.timeout").Return(time.Duration(0))
	s.cfg.EXPECT().GetString("idempotency.key_prefix").Return("test")

	store, err := provideIdempotencyStore(s.cfg, sharedidempotency.Config{Backend: sharedidempotency.BackendMemory, TTL: time.Minute}, discardLogger())
	require.NoError(s.T(), err)
	defer store.Close()

	claim, err := store.Exists(context.Background(), "order-1", "tenant-A")
	require.NoError(s.T(), err)
	assert.True(s.T(), claim.Created())

	claim, err = store.Exists(context.Background(), "order-1", "tenant-A")
	require.NoError(s.T(), err)
	assert.False(s.T(), claim.Created())
	assert.Equal(s.T(), sharedidempotency.StatusInProgress, claim.Record.Status)
}

func (s *AppHelpersSuite) TestProvideIdempotencyRecordConfig() {
	s.cfg.EXPECT().GetDuration("idempotency.timeout").Return(2 * time.Second)
	s.cfg.EXPECT().GetDuration("idempotency.max_ttl").Return(72 * time.Hour)

	cfg := provideIdempotencyRecordConfig(s.cfg)
	assert.Equal(s.T(), 2*time.Second, cfg.Timeout)
	assert.Equal(s.T(), 72*time.Hour, cfg.MaxTTL)
}

func (s *AppHelpersSuite) TestProvideRouterGroups_HealthAndProtectedGroup() {
	s.cfg.EXPECT().GetDuration("server.read_timeout").Return(time.Duration(0))
	s.cfg.EXPECT().GetDuration("server.write_timeout").Return(time.Duration(0))
	s.cfg.EXPECT().GetStringSlice("server.cors.allow_origins").Return(nil)

	fiberApp := provideFiberApp(s.cfg)
	groups := provideRouterGroups(fiberApp, s.cfg, discardLogger(), jwtmocks.NewTokenManager(s.T()))
	groups.Protected.Get("/idempotency/ping", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := fiberApp.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.NotEmpty(s.T(), resp.Header.Get("X-Request-ID"))

	resp, err = fiberApp.Test(httptest.NewRequest(http.MethodGet, "/api/v1/idempotency/ping", nil))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func TestAppHelpersSuite(t *testing.T) {
	suite.Run(t, new(AppHelpersSuite))
}

type sweepingStore struct {
	*idempotencymocks.Store
	sweeps atomic.Int32
}

func (s *sweepingStore) Sweep(context.Context) (int, error) {
	s.sweeps.Add(1)
	return 1, nil
}

func TestSweepLoop_RunsOnlyForSweepers(t *testing.T) {
	store := &sweepingStore{Store: idempotencymocks.NewStore(t)}

	loop := newSweepLoop(store, 5*time.Millisecond, time.Second, discardLogger())
	loop.start()
	assert.Eventually(t, func() bool { return store.sweeps.Load() >= 2 }, time.Second, 5*time.Millisecond)
	loop.stop()

	after := store.sweeps.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, store.sweeps.Load())

	plain := newSweepLoop(idempotencymocks.NewStore(t), 5*time.Millisecond, time.Second, discardLogger())
	plain.start()
	plain.stop()
	assert.Nil(t, plain.sweeper)

	disabled := newSweepLoop(store, 0, time.Second, discardLogger())
	disabled.start()
	assert.Nil(t, disabled.cancel)
}

func TestModuleGraphs_Validate(t *testing.T) {
	tests := []struct {
		name    string
		bin     string
		modules []fx.Option
	}{
		{name: "all", bin: "", modules: []fx.Option{AuthModule(), IdempotencyModule()}},
		{name: "auth", bin: BinAuth, modules: []fx.Option{AuthModule()}},
		{name: "idempotency", bin: BinIdempotency, modules: []fx.Option{IdempotencyModule()}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := []fx.Option{
				fx.Supply(fx.Annotate(tc.bin, fx.ResultTags(`name:"bin"`))),
				CoreModule(),
			}
			opts = append(opts, tc.modules...)
			opts = append(opts, fx.Invoke(registerLifecycle))

			assert.NoError(t, fx.ValidateApp(opts...))
		})
	}
}
