package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"musicbingo/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DefaultDocumentKey は session_documents テーブルの行キー
const DefaultDocumentKey = "sessions"

func InitPostgreSQL(config models.Config, logger *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s dbname=%s password=%s sslmode=%s",
		config.DBHost, config.DBUser, config.DBName, config.DBPassword, config.DBSSLMode)

	const maxRetries = 3
	const retryInterval = 5 * time.Second
	var err error
	for i := 0; i <= maxRetries; i++ {
		var gormDB *gorm.DB
		gormDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			if err = gormDB.AutoMigrate(&models.SessionDocument{}); err != nil {
				return nil, fmt.Errorf("session_documents のマイグレーションに失敗しました: %w", err)
			}
			return gormDB, nil
		}
		logger.Error("データベース接続のリトライ", zap.Int("retry", i), zap.Error(err))
		if i < maxRetries {
			time.Sleep(retryInterval)
		}
	}
	return nil, fmt.Errorf("データベース接続に失敗しました: %w", err)
}

// PostgresStore keeps the whole table as the body of a single row.
type PostgresStore struct {
	db  *gorm.DB
	key string
}

func NewPostgresStore(db *gorm.DB, key string) *PostgresStore {
	if key == "" {
		key = DefaultDocumentKey
	}
	return &PostgresStore{db: db, key: key}
}

func (s *PostgresStore) Load(ctx context.Context) (models.Table, error) {
	var doc models.SessionDocument
	err := s.db.WithContext(ctx).Where("key = ?", s.key).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Table{}, nil
	}
	if err != nil {
		return nil, loadError(err)
	}
	table, err := decodeTable([]byte(doc.Body))
	if err != nil {
		return nil, loadError(err)
	}
	return table, nil
}

func (s *PostgresStore) Save(ctx context.Context, table models.Table) error {
	body, err := encodeTable(table)
	if err != nil {
		return saveError(err)
	}
	doc := models.SessionDocument{Key: s.key, Body: string(body), UpdatedAt: time.Now()}
	// 主キーがあるので Save は UPDATE、行がなければ INSERT になる
	if err := s.db.WithContext(ctx).Save(&doc).Error; err != nil {
		return saveError(err)
	}
	return nil
}
