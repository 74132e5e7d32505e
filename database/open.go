package database

import (
	"fmt"

	"musicbingo/models"

	"go.uber.org/zap"
)

// Open builds the store selected by config.StoreDriver. The returned close
// func releases the backend connection.
func Open(config models.Config, logger *zap.Logger) (Store, func() error, error) {
	noop := func() error { return nil }

	switch config.StoreDriver {
	case "redis":
		rdb, err := InitRedis(config, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("Redisの初期化に失敗しました: %w", err)
		}
		return NewRedisStore(rdb, config.RedisKey, config.RedisTTL), rdb.Close, nil
	case "postgres":
		db, err := InitPostgreSQL(config, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("PostgreSQLの初期化に失敗しました: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresStore(db, config.DBKey), sqlDB.Close, nil
	case "http":
		logger.Info("Using JSON bucket store", zap.String("url", config.BucketURL))
		return NewBucketStore(config.BucketURL, nil), noop, nil
	case "memory":
		logger.Warn("Using in-memory store; sessions are only shared by clients of this process")
		return NewMemoryStore(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver: %q", config.StoreDriver)
	}
}
