// Package app assembles the account service from configuration. It is
// shared by the server and the seed command.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"shineal/internal/auth"
	"shineal/internal/config"
	"shineal/internal/coordinator"
	"shineal/internal/lock"
	"shineal/internal/metrics"
	"shineal/internal/service"
	"shineal/internal/store"
)

// App holds the long-lived components built from Config.
type App struct {
	Store    store.Client
	Tokens   *auth.JWTService
	Accounts service.AccountService

	redis *redis.Client
}

// New builds the store client, coordinator and account service, and makes
// sure the users document exists.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*App, error) {
	a := &App{}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		a.Store = store.NewMemory()
	default:
		a.Store = store.NewJSONBinClient(store.JSONBinOptions{
			BaseURL: cfg.StoreBaseURL,
			BinID:   cfg.StoreBinID,
			APIKey:  cfg.StoreAPIKey,
			Timeout: cfg.StoreTimeout,
		}, logger, m)
	}

	initCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()
	if _, err := a.Store.EnsureInitialized(initCtx); err != nil {
		return nil, fmt.Errorf("initialize users document: %w", err)
	}

	opts := []coordinator.Option{
		coordinator.WithLockTimeout(cfg.LockTimeout),
		coordinator.WithMetrics(m),
	}
	if cfg.LeaseEnabled() {
		client, err := lock.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.redis = client
		opts = append(opts, coordinator.WithLease(lock.NewRedis(client, cfg.RedisLockKey, cfg.RedisLockTTL)))
		logger.Info("cross-process lease enabled", "key", cfg.RedisLockKey)
	}
	coord := coordinator.New(a.Store, logger, opts...)

	a.Tokens = auth.NewJWTService(cfg.JWTSecret, auth.WithTTLs(cfg.TokenTTL, cfg.TokenTTLRemember))
	a.Accounts = service.NewAccountService(coord, auth.NewPasswordHasher(), a.Tokens, logger)
	return a, nil
}

// Close releases connections held by the app.
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
