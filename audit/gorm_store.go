package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/composekit/config"
	"github.com/BaSui01/composekit/internal/database"
)

// GormStore 把审计记录写入关系数据库
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore 使用已建立的连接创建存储并迁移表结构
func NewGormStore(db *gorm.DB, logger *zap.Logger) (*GormStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate audit table: %w", err)
	}
	return &GormStore{db: db, logger: logger.With(zap.String("component", "audit_gorm"))}, nil
}

// OpenGormStore 按配置打开数据库并创建存储
func OpenGormStore(cfg config.DatabaseConfig, logger *zap.Logger) (*GormStore, error) {
	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	store, err := NewGormStore(db, logger)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return store, nil
}

// Save implements Store.
func (s *GormStore) Save(ctx context.Context, rec Record) error {
	fill(&rec)
	return database.Transact(ctx, s.db, 3, func(tx *gorm.DB) error {
		return tx.Create(&rec).Error
	})
}

// List 按创建顺序返回某次运行的全部记录
func (s *GormStore) List(ctx context.Context, runID string) ([]Record, error) {
	var records []Record
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("created_at ASC, attempt ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	return records, nil
}

// Close 关闭连接池
func (s *GormStore) Close() error {
	return database.Close(s.db)
}
