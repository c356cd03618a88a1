package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/a920604a/to-do-list/internal/adapters/repository"
	"github.com/a920604a/to-do-list/internal/infrastructure/config"
	"github.com/a920604a/to-do-list/internal/infrastructure/database"
	"github.com/a920604a/to-do-list/internal/infrastructure/logger"
)

// Backend is an opened task store together with the connections it owns
type Backend struct {
	Store *repository.Instrumented
	DB    *database.DB
	Redis *redis.Client
}

// OpenBackend opens the store selected by cfg.Store.Driver and wraps it with
// metrics registered on reg.
func OpenBackend(cfg *config.Config, loc *time.Location, reg prometheus.Registerer, appLogger *logger.Logger) (*Backend, error) {
	b := &Backend{}
	metrics := repository.NewStoreMetrics(reg)

	switch cfg.Store.Driver {
	case repository.BackendLocal:
		store, err := repository.NewLocalStore(cfg.Store.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}
		b.Store = repository.NewInstrumented(store, metrics)

	case repository.BackendRedis:
		client, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		b.Redis = client
		b.Store = repository.NewInstrumented(repository.NewRedisStore(client, cfg.Redis.KeyPrefix, loc), metrics)

	case repository.BackendPostgres:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.DB = db
		b.Store = repository.NewInstrumented(repository.NewPostgresStore(db.DB), metrics)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	appLogger.Infow("Task store opened", "backend", b.Store.Backend())
	return b, nil
}

// Ping checks the store and any connection behind it
func (b *Backend) Ping(ctx context.Context) error {
	return b.Store.Ping(ctx)
}

// Close releases the connections owned by the backend
func (b *Backend) Close() error {
	var errs []error
	if b.Redis != nil {
		errs = append(errs, b.Redis.Close())
	}
	if b.DB != nil {
		errs = append(errs, b.DB.Close())
	}
	return errors.Join(errs...)
}
