package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joshuarp/idempotency-api/internal/services"
	"github.com/joshuarp/idempotency-api/internal/shared/config"
	sharedidempotency "github.com/joshuarp/idempotency-api/internal/shared/idempotency"
	"go.uber.org/fx"
)

const defaultIdempotencyTimeout = 5 * time.Second

func provideIdempotencyStoreConfig(cfg config.ConfigProvider) (sharedidempotency.Config, error) {
	backend, err := sharedidempotency.ParseBackend(cfg.GetString("idempotency.backend"))
	if err != nil {
		return sharedidempotency.Config{}, fmt.Errorf("app: %w", err)
	}

	storeConfig := sharedidempotency.Config{
		Backend:   backend,
		URL:       cfg.GetString("idempotency.url"),
		TableName: cfg.GetString("idempotency.table_name"),
		Keyspace:  cfg.GetString("idempotency.keyspace"),
		TTL:       cfg.GetDuration("idempotency.ttl"),
	}
	if err := storeConfig.Validate(); err != nil {
		return sharedidempotency.Config{}, fmt.Errorf("app: invalid idempotency config: %w", err)
	}

	return storeConfig, nil
}

func idempotencyTimeout(cfg config.ConfigProvider) time.Duration {
	timeout := cfg.GetDuration("idempotency.timeout")
	if timeout <= 0 {
		timeout = defaultIdempotencyTimeout
	}
	return timeout
}

func provideIdempotencyStore(
	cfg config.ConfigProvider,
	storeConfig sharedidempotency.Config,
	logger *slog.Logger,
) (sharedidempotency.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout(cfg))
	defer cancel()

	store, err := sharedidempotency.New(ctx, storeConfig,
		sharedidempotency.WithLogger(logger),
		sharedidempotency.WithKeyPrefix(cfg.GetString("idempotency.key_prefix")),
	)
	if err != nil {
		return nil, fmt.Errorf("app: failed to open %s idempotency store: %w", storeConfig.Backend, err)
	}

	logger.Info("idempotency store opened", "backend", string(storeConfig.Backend), "ttl", storeConfig.TTL.String())
	return store, nil
}

func provideIdempotencyRecordConfig(cfg config.ConfigProvider) services.IdempotencyRecordConfig {
	return services.IdempotencyRecordConfig{
		Timeout: idempotencyTimeout(cfg),
		MaxTTL:  cfg.GetDuration("idempotency.max_ttl"),
	}
}

// registerIdempotencyLifecycle closes the store on shutdown and, for backends
// that do not expire records themselves, runs a periodic sweep.
func registerIdempotencyLifecycle(
	lifecycle fx.Lifecycle,
	cfg config.ConfigProvider,
	store sharedidempotency.Store,
	logger *slog.Logger,
) {
	sweeper := newSweepLoop(store, cfg.GetDuration("idempotency.sweep_interval"), idempotencyTimeout(cfg), logger)

	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			sweeper.start()
			return nil
		},
		OnStop: func(context.Context) error {
			sweeper.stop()
			if err := store.Close(); err != nil {
				return fmt.Errorf("app: failed to close idempotency store: %w", err)
			}
			logger.Info("idempotency store closed")
			return nil
		},
	})
}

type sweepLoop struct {
	sweeper  sharedidempotency.Sweeper
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newSweepLoop(store sharedidempotency.Store, interval, timeout time.Duration, logger *slog.Logger) *sweepLoop {
	loop := &sweepLoop{interval: interval, timeout: timeout, logger: logger}
	if sweeper, ok := store.(sharedidempotency.Sweeper); ok {
		loop.sweeper = sweeper
	}
	return loop
}

func (l *sweepLoop) start() {
	if l.sweeper == nil || l.interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.sweepOnce(ctx)
			}
		}
	}()
}

func (l *sweepLoop) sweepOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	removed, err := l.sweeper.Sweep(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			l.logger.Warn("idempotency sweep failed", "error", err)
		}
		return
	}
	if removed > 0 {
		l.logger.Debug("idempotency sweep removed expired records", "removed", removed)
	}
}

func (l *sweepLoop) stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	l.wg.Wait()
}
