package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStorage 基于 Redis 的键值存储（无过期时间）
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage 创建 Redis 存储
func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

// Load 读取 key
func (r *RedisStorage) Load(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.buildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Save 写入 key
func (r *RedisStorage) Save(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.buildKey(key), value, 0).Err()
}

// Delete 删除 key
func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.buildKey(key)).Err()
}

func (r *RedisStorage) buildKey(key string) string {
	return namespaced(r.prefix, "storage:"+key)
}
