package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dujiao-next/storefront/internal/backend"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/metrics"
	"github.com/dujiao-next/storefront/internal/provider"
	"github.com/dujiao-next/storefront/internal/queue"
	"github.com/dujiao-next/storefront/internal/store"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	Toggler store.Toggler
	Metrics *metrics.Instruments
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil {
		return &Consumer{}
	}
	consumer := &Consumer{Metrics: c.Metrics}
	if c.BackendClient != nil {
		consumer.Toggler = c.BackendClient
	}
	return consumer
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskWishlistToggle, c.handleWishlistToggle)
}

func (c *Consumer) handleWishlistToggle(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_wishlist_toggle_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseWishlistTogglePayload(task)
	if err != nil {
		logger.Warnw("worker_wishlist_toggle_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.ProductID == 0 || strings.TrimSpace(payload.Token) == "" {
		logger.Debugw("worker_wishlist_toggle_skip_invalid_payload", "product_id", payload.ProductID)
		return nil
	}
	if c.Toggler == nil {
		logger.Warnw("worker_wishlist_toggle_no_backend", "product_id", payload.ProductID)
		return nil
	}
	if err := c.Toggler.ToggleWishlist(ctx, payload.Token, payload.ProductID); err != nil {
		c.Metrics.WishlistSync(ctx, "failed")
		logger.Warnw("worker_wishlist_toggle_failed", "product_id", payload.ProductID, "error", err)
		if errors.Is(err, backend.ErrUnauthorized) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}
	c.Metrics.WishlistSync(ctx, "ok")
	return nil
}
