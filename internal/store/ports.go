package store

import (
	"context"

	"github.com/dujiao-next/storefront/internal/backend"
	"github.com/dujiao-next/storefront/internal/models"
)

// Catalog 后端读取接口
type Catalog interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListWishlist(ctx context.Context, token string) ([]backend.WishlistItem, error)
}

// SessionSource 读取登录流程写入的 bearer token
type SessionSource interface {
	Token(ctx context.Context) string
}

// WishlistSyncer 收藏切换同步，调用方不等待结果
type WishlistSyncer interface {
	SyncToggle(ctx context.Context, token string, productID uint)
}

// Navigator 未登录时跳转登录页
type Navigator interface {
	RedirectToLogin()
}
