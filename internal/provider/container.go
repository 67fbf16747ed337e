package provider

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dujiao-next/storefront/internal/backend"
	"github.com/dujiao-next/storefront/internal/cache"
	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/metrics"
	"github.com/dujiao-next/storefront/internal/payment"
	"github.com/dujiao-next/storefront/internal/queue"
	"github.com/dujiao-next/storefront/internal/session"
	"github.com/dujiao-next/storefront/internal/storage"
	"github.com/dujiao-next/storefront/internal/store"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	Storage       storage.Storage
	BackendClient *backend.Client
	Session       *session.Manager
	Metrics       *metrics.Instruments
	Payment       *payment.Simulator

	// 进程内唯一的客户端状态仓库
	Store *store.Store

	directSyncer    *store.DirectSyncer
	metricsShutdown metrics.ShutdownFunc
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	c := &Container{Config: cfg}

	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	inst, shutdown, err := metrics.Init(context.Background(), cfg.Metrics)
	if err != nil {
		logger.Warnw("provider_init_metrics_failed", "error", err)
	}
	c.Metrics = inst
	c.metricsShutdown = shutdown

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Warnw("provider_init_queue_client_failed", "error", err)
	}
	c.QueueClient = queueClient

	st, err := storage.Open(cfg.Storage, cache.Client())
	if err != nil {
		return nil, c.abort(err)
	}
	c.Storage = st

	client, err := backend.NewClient(cfg.Backend, nil)
	if err != nil {
		return nil, c.abort(err)
	}
	c.BackendClient = client
	c.Session = session.NewManager(st)
	c.Payment = payment.NewSimulator()

	c.initStore()
	return c, nil
}

// abort 初始化失败时释放已创建的资源
func (c *Container) abort(err error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if closeErr := c.Close(ctx); closeErr != nil {
		logger.Warnw("provider_release_failed", "error", closeErr)
	}
	return err
}

func (c *Container) initStore() {
	var syncer store.WishlistSyncer
	if c.QueueClient.Enabled() {
		syncer = queue.NewWishlistSyncer(c.QueueClient, c.Metrics)
	} else {
		timeout := time.Duration(c.Config.Backend.SyncTimeoutSeconds) * time.Second
		c.directSyncer = store.NewDirectSyncer(c.BackendClient, timeout, c.Metrics)
		syncer = c.directSyncer
	}
	c.Store = store.New(store.Deps{
		Storage: c.Storage,
		Catalog: c.BackendClient,
		Session: c.Session,
		Syncer:  syncer,
	}, store.Options{
		Promotion: c.Config.Promotion,
		Metrics:   c.Metrics,
	})
}

// Close 释放容器持有的资源
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	c.directSyncer.Wait()
	if err := c.QueueClient.Close(); err != nil {
		errs = append(errs, err)
	}
	if closer, ok := c.Storage.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := cache.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.metricsShutdown != nil {
		if err := c.metricsShutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
