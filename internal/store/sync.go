package store

import (
	"context"
	"sync"
	"time"

	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/metrics"
)

const defaultSyncTimeout = 10 * time.Second

// Toggler 后端收藏切换调用
type Toggler interface {
	ToggleWishlist(ctx context.Context, token string, productID uint) error
}

// DirectSyncer 每次切换单独起 goroutine 调用后端；失败只记录日志，不回滚本地状态
type DirectSyncer struct {
	toggler Toggler
	timeout time.Duration
	metrics *metrics.Instruments
	wg      sync.WaitGroup
}

// NewDirectSyncer 创建直连同步器
func NewDirectSyncer(toggler Toggler, timeout time.Duration, m *metrics.Instruments) *DirectSyncer {
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}
	return &DirectSyncer{toggler: toggler, timeout: timeout, metrics: m}
}

// SyncToggle 异步发送切换请求；请求生命周期与调用方 ctx 的取消无关
func (d *DirectSyncer) SyncToggle(ctx context.Context, token string, productID uint) {
	if d == nil || d.toggler == nil {
		return
	}
	base := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		syncCtx, cancel := context.WithTimeout(base, d.timeout)
		defer cancel()
		if err := d.toggler.ToggleWishlist(syncCtx, token, productID); err != nil {
			d.metrics.WishlistSync(syncCtx, "failed")
			logger.Named("wishlist_sync").Warnw("store_wishlist_sync_failed", "product_id", productID, "error", err)
			return
		}
		d.metrics.WishlistSync(syncCtx, "ok")
	}()
}

// Wait 等待已发出的同步请求结束
func (d *DirectSyncer) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
