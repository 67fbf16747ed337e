package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/metrics"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
)

// Client 队列客户端封装
type Client struct {
	client       *asynq.Client
	enabled      bool
	defaultQueue string
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue}, nil
	}
	opt := buildRedisOpt(cfg)
	client := asynq.NewClient(opt)
	return &Client{
		client:       client,
		enabled:      true,
		defaultQueue: DefaultQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueWishlistToggle 推送收藏切换同步任务。
// 切换接口不幂等，任务不重试。
func (c *Client) EnqueueWishlistToggle(ctx context.Context, payload WishlistTogglePayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewWishlistToggleTask(payload)
	if err != nil {
		return err
	}
	options := append([]asynq.Option{asynq.Queue(c.defaultQueue), asynq.MaxRetry(0)}, opts...)
	_, err = c.client.EnqueueContext(ctx, task, options...)
	return err
}

// WishlistSyncer 通过队列异步同步收藏切换，由 worker 模式消费
type WishlistSyncer struct {
	client  *Client
	metrics *metrics.Instruments
}

// NewWishlistSyncer 创建队列同步器
func NewWishlistSyncer(client *Client, m *metrics.Instruments) *WishlistSyncer {
	return &WishlistSyncer{client: client, metrics: m}
}

// SyncToggle 入队失败只记录日志
func (s *WishlistSyncer) SyncToggle(ctx context.Context, token string, productID uint) {
	if s == nil || !s.client.Enabled() {
		return
	}
	payload := WishlistTogglePayload{Token: token, ProductID: productID}
	if err := s.client.EnqueueWishlistToggle(context.WithoutCancel(ctx), payload); err != nil {
		s.metrics.WishlistSync(ctx, "enqueue_failed")
		logger.Warnw("queue_wishlist_toggle_enqueue_failed", "product_id", productID, "error", err)
		return
	}
	s.metrics.WishlistSync(ctx, "enqueued")
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 1}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
