// Package storage 提供 store 的持久化端口：按 key 读写整段 JSON。
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/constants"

	"github.com/redis/go-redis/v9"
)

var (
	ErrDriverUnsupported = errors.New("storage driver unsupported")
	ErrRedisUnavailable  = errors.New("storage redis client unavailable")
)

// Storage 客户端本地键值持久化接口
type Storage interface {
	// Load 读取 key；不存在时 ok=false 且 err=nil
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Save 整体覆盖写入 key
	Save(ctx context.Context, key string, value []byte) error
	// Delete 删除 key；不存在不报错
	Delete(ctx context.Context, key string) error
}

// LoadJSON 读取并解析 JSON；不存在返回 false
func LoadJSON(ctx context.Context, s Storage, key string, dest interface{}) (bool, error) {
	raw, ok, err := s.Load(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s failed: %w", key, err)
	}
	return true, nil
}

// SaveJSON 序列化后写入
func SaveJSON(ctx context.Context, s Storage, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s failed: %w", key, err)
	}
	return s.Save(ctx, key, payload)
}

// Open 按配置创建存储实现；redis 驱动需要传入已初始化的客户端
func Open(cfg config.StorageConfig, redisClient *redis.Client) (Storage, error) {
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case constants.StorageDriverMemory:
		return NewMemoryStorage(), nil
	case "", constants.StorageDriverSQLite, constants.StorageDriverPostgres, "postgresql":
		db, err := OpenDB(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return NewSQLStorage(db, prefix)
	case constants.StorageDriverRedis:
		if redisClient == nil {
			return nil, ErrRedisUnavailable
		}
		return NewRedisStorage(redisClient, prefix), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrDriverUnsupported, cfg.Driver)
	}
}

func namespaced(prefix, key string) string {
	key = strings.TrimSpace(key)
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
