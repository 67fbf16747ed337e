package metrics

import (
	"context"
	"testing"

	"github.com/dujiao-next/storefront/internal/config"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	out := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					out[m.Name] += dp.Value
				}
			}
		}
	}
	return out
}

func TestInstrumentsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	inst, err := New(provider.Meter("test"))
	if err != nil {
		t.Fatalf("new instruments failed: %v", err)
	}
	ctx := context.Background()
	inst.CartMutation(ctx, "add")
	inst.CartMutation(ctx, "decrease")
	inst.WishlistSync(ctx, "failed")
	inst.OrderPlaced(ctx, 130)
	inst.CatalogFetch(ctx, true)

	sums := collectSums(t, reader)
	if sums["storefront.cart.mutations"] != 2 {
		t.Fatalf("cart mutations want 2 got %d", sums["storefront.cart.mutations"])
	}
	if sums["storefront.wishlist.syncs"] != 1 {
		t.Fatalf("wishlist syncs want 1 got %d", sums["storefront.wishlist.syncs"])
	}
	if sums["storefront.orders.placed"] != 1 {
		t.Fatalf("orders placed want 1 got %d", sums["storefront.orders.placed"])
	}
}

func TestNilInstrumentsAreNoop(t *testing.T) {
	var inst *Instruments
	inst.CartMutation(context.Background(), "add")
	inst.WishlistSync(context.Background(), "ok")
	inst.OrderPlaced(context.Background(), 1)
	inst.CatalogFetch(context.Background(), false)
}

func TestInitDisabledUsesGlobalProvider(t *testing.T) {
	inst, shutdown, err := Init(context.Background(), config.MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("init disabled failed: %v", err)
	}
	if inst == nil {
		t.Fatalf("instruments should not be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown failed: %v", err)
	}
}
