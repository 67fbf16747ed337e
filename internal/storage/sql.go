package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite" // 纯 Go SQLite 驱动（基于 modernc.org/sqlite）
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// KVEntry 键值存储表
type KVEntry struct {
	Key       string    `gorm:"column:storage_key;primaryKey;type:varchar(191)" json:"key"` // 存储 key
	Value     string    `gorm:"type:text;not null" json:"value"`                            // JSON 内容
	UpdatedAt time.Time `json:"updated_at"`                                                 // 更新时间
}

// TableName 指定表名
func (KVEntry) TableName() string {
	return "kv_entries"
}

// SQLStorage 基于 GORM 的键值存储（sqlite / postgres）
type SQLStorage struct {
	db     *gorm.DB
	prefix string
}

// OpenDB 打开数据库连接
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %s", ErrDriverUnsupported, driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if strings.ToLower(strings.TrimSpace(driver)) == "" || strings.EqualFold(driver, "sqlite") {
		// sqlite 单连接，避免 database is locked
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	return db, nil
}

// NewSQLStorage 创建 SQL 存储并自动迁移表结构
func NewSQLStorage(db *gorm.DB, prefix string) (*SQLStorage, error) {
	if db == nil {
		return nil, errors.New("storage db is nil")
	}
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries failed: %w", err)
	}
	return &SQLStorage{db: db, prefix: strings.TrimSpace(prefix)}, nil
}

// Load 读取 key
func (s *SQLStorage) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var entry KVEntry
	err := s.db.WithContext(ctx).Where("storage_key = ?", namespaced(s.prefix, key)).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(entry.Value), true, nil
}

// Save 写入 key（存在则覆盖）
func (s *SQLStorage) Save(ctx context.Context, key string, value []byte) error {
	entry := KVEntry{
		Key:       namespaced(s.prefix, key),
		Value:     string(value),
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// Delete 删除 key
func (s *SQLStorage) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("storage_key = ?", namespaced(s.prefix, key)).Delete(&KVEntry{}).Error
}

// Close 关闭底层连接
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureSQLiteDir(dsn string) error {
	path := strings.TrimSpace(dsn)
	if path == "" || strings.HasPrefix(path, "file:") || strings.Contains(path, ":memory:") {
		return nil
	}
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite dir failed: %w", err)
	}
	return nil
}
