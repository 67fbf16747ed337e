package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/dujiao-next/storefront/internal/cache"
	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/storage"
)

func TestNewContainerReleasesRedisOnStorageFailure(t *testing.T) {
	cfg := &config.Config{
		Redis:   config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1},
		Storage: config.StorageConfig{Driver: "bogus"},
		Backend: config.BackendConfig{BaseURL: "http://127.0.0.1:1"},
	}
	t.Cleanup(func() { _ = cache.Close() })

	c, err := NewContainer(cfg)
	if !errors.Is(err, storage.ErrDriverUnsupported) {
		t.Fatalf("want unsupported driver error, got %v", err)
	}
	if c != nil {
		t.Fatalf("failed init should not return a container")
	}
	if cache.Enabled() {
		t.Fatalf("redis client should be released after a failed init")
	}
}

func TestNewContainerWiresStore(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: "memory"},
		Backend: config.BackendConfig{BaseURL: "http://127.0.0.1:1"},
	}
	c, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("new container failed: %v", err)
	}
	if c.Store == nil || c.Session == nil || c.Payment == nil || c.directSyncer == nil {
		t.Fatalf("container should wire the store with a direct syncer: %+v", c)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}
