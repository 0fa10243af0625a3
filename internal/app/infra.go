package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/onlyformurshi/zameel-admin-gateway/internal/config"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/db"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/logger"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/redis"

	_ "github.com/lib/pq"
)

type Infra struct {
	DB    *db.DB
	Redis *redis.Client
}

// setupInfra brings up only the storage backend the configuration
// selects; the memory backend needs no infrastructure at all.
func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	switch cfg.SessionBackend {

	case "postgres":
		sqlDB, err := sql.Open("postgres", cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}

		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, err
		}

		if err := db.RunSessionMigration(ctx, sqlDB); err != nil {
			return nil, err
		}

		logger.Info("database ready", nil)
		infra.DB = &db.DB{DB: sqlDB}

	case "redis":
		redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}

		logger.Info("redis ready", nil)
		infra.Redis = redisClient

	case "memory":
		logger.Warn("using in-memory session storage, sessions will not survive restarts", nil)

	default:
		return nil, fmt.Errorf("app: unknown session backend %q", cfg.SessionBackend)
	}

	return infra, nil
}

func (i *Infra) Close() error {
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			return err
		}
	}
	if i.Redis != nil {
		return i.Redis.Close()
	}
	return nil
}
