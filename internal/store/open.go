package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spiritrise/yogacamp/config"
	"github.com/spiritrise/yogacamp/pkg/database"
	"github.com/spiritrise/yogacamp/pkg/redis"
)

// Open connects the backend named by cfg.Store.Driver. For postgres it also
// applies the embedded migrations. The caller owns the returned store and must Close it.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.URL, logger)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return NewPostgres(pool), nil
	case config.DriverRedis:
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			return nil, err
		}
		return NewRedis(rdb, ""), nil
	case config.DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("SQLite store opened", zap.String("path", cfg.SQLite.Path))
		return s, nil
	case config.DriverMemory:
		logger.Warn("using in-memory store; registrations are lost on restart")
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
