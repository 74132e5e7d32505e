package database

import (
	"context"
	"errors"
	"time"

	"musicbingo/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultRedisKey はセッションテーブルを保存するキー
const DefaultRedisKey = "musicbingo:sessions"

func InitRedis(config models.Config, logger *zap.Logger) (*redis.Client, error) {
	redisAddr := config.RedisAddr
	if redisAddr == "" {
		redisAddr = "localhost:6379" // デフォルト値
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	// Redisへの接続テスト
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		logger.Error("Failed to connect to Redis", zap.String("addr", redisAddr), zap.Error(err))
		return nil, err
	}

	logger.Info("Connected to Redis", zap.String("addr", redisAddr))
	return rdb, nil
}

// RedisStore keeps the whole table as one JSON string value.
type RedisStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration // 0 means no expiry
}

// NewRedisStore stores the table under key. A positive ttl is refreshed on every save.
func NewRedisStore(rdb *redis.Client, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context) (models.Table, error) {
	body, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Table{}, nil
	}
	if err != nil {
		return nil, loadError(err)
	}
	table, err := decodeTable(body)
	if err != nil {
		return nil, loadError(err)
	}
	return table, nil
}

func (s *RedisStore) Save(ctx context.Context, table models.Table) error {
	body, err := encodeTable(table)
	if err != nil {
		return saveError(err)
	}
	if err := s.rdb.Set(ctx, s.key, body, s.ttl).Err(); err != nil {
		return saveError(err)
	}
	return nil
}
