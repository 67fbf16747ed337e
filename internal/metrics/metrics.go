package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dujiao-next/storefront/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const meterName = "github.com/dujiao-next/storefront"

// Instruments store 行为指标；nil 接收者上的方法均为空操作
type Instruments struct {
	cartMutations  metric.Int64Counter
	wishlistSyncs  metric.Int64Counter
	ordersPlaced   metric.Int64Counter
	orderValue     metric.Float64Counter
	catalogFetches metric.Int64Counter
}

// ShutdownFunc 关闭指标导出
type ShutdownFunc func(context.Context) error

// New 基于 meter 创建指标
func New(meter metric.Meter) (*Instruments, error) {
	cartMutations, err := meter.Int64Counter(
		"storefront.cart.mutations",
		metric.WithDescription("Cart mutations by operation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cart mutations counter: %w", err)
	}
	wishlistSyncs, err := meter.Int64Counter(
		"storefront.wishlist.syncs",
		metric.WithDescription("Wishlist toggle sync attempts by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create wishlist sync counter: %w", err)
	}
	ordersPlaced, err := meter.Int64Counter(
		"storefront.orders.placed",
		metric.WithDescription("Orders placed from the cart"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders counter: %w", err)
	}
	orderValue, err := meter.Float64Counter(
		"storefront.orders.value",
		metric.WithDescription("Sum of placed order totals"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order value counter: %w", err)
	}
	catalogFetches, err := meter.Int64Counter(
		"storefront.catalog.fetches",
		metric.WithDescription("Catalog fetches by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create catalog fetch counter: %w", err)
	}
	return &Instruments{
		cartMutations:  cartMutations,
		wishlistSyncs:  wishlistSyncs,
		ordersPlaced:   ordersPlaced,
		orderValue:     orderValue,
		catalogFetches: catalogFetches,
	}, nil
}

// Init 按配置初始化指标；未启用时使用全局（默认 noop）MeterProvider
func Init(ctx context.Context, cfg config.MetricsConfig) (*Instruments, ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		inst, err := New(otel.GetMeterProvider().Meter(meterName))
		return inst, noop, err
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "storefront"
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, noop, fmt.Errorf("create metrics resource: %w", err)
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(strings.TrimSpace(cfg.Endpoint)),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, noop, fmt.Errorf("create otlp exporter: %w", err)
	}

	interval := 10 * time.Second
	if cfg.IntervalSeconds > 0 {
		interval = time.Duration(cfg.IntervalSeconds) * time.Second
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(provider)

	inst, err := New(provider.Meter(meterName))
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, noop, err
	}
	return inst, provider.Shutdown, nil
}

// CartMutation 记录一次购物车变更
func (i *Instruments) CartMutation(ctx context.Context, op string) {
	if i == nil {
		return
	}
	i.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// WishlistSync 记录一次收藏同步结果
func (i *Instruments) WishlistSync(ctx context.Context, result string) {
	if i == nil {
		return
	}
	i.wishlistSyncs.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// OrderPlaced 记录下单
func (i *Instruments) OrderPlaced(ctx context.Context, total float64) {
	if i == nil {
		return
	}
	i.ordersPlaced.Add(ctx, 1)
	i.orderValue.Add(ctx, total)
}

// CatalogFetch 记录商品目录拉取结果
func (i *Instruments) CatalogFetch(ctx context.Context, ok bool) {
	if i == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	i.catalogFetches.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
