// Package store 客户端状态仓库：商品目录缓存、购物车、收藏与订单历史。
// 所有变更在同一把锁内完成并立即整体写回存储；与后端的网络调用不在锁内进行。
package store

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/metrics"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/storage"

	"github.com/shopspring/decimal"
)

// ErrCartEmpty 购物车为空，无法结算
var ErrCartEmpty = errors.New("cart is empty")

// ToggleResult 收藏切换结果
type ToggleResult string

const (
	ToggleAdded         ToggleResult = constants.WishlistToggleAdded
	ToggleRemoved       ToggleResult = constants.WishlistToggleRemoved
	ToggleLoginRequired ToggleResult = constants.WishlistToggleLoginRequired
)

// Deps 仓库依赖
type Deps struct {
	Storage storage.Storage
	Catalog Catalog
	Session SessionSource
	Syncer  WishlistSyncer
}

// Options 仓库可选项
type Options struct {
	Promotion config.PromotionConfig
	Metrics   *metrics.Instruments
	Navigator Navigator
	Now       func() time.Time
}

// Store 客户端状态仓库
type Store struct {
	storage   storage.Storage
	catalog   Catalog
	session   SessionSource
	syncer    WishlistSyncer
	navigator Navigator
	metrics   *metrics.Instruments
	now       func() time.Time

	promoted        map[uint]struct{}
	discountPercent decimal.Decimal

	initOnce sync.Once

	mu         sync.Mutex
	products   []models.Product
	catalogErr string
	inflight   int // 进行中的目录拉取数
	cart       []models.CartLine
	wishlist   []models.WishlistEntry
	orders     []models.Order
	drawerOpen bool
}

// New 创建仓库并同步读取购物车、收藏、订单；缺失或损坏的数据视为空
func New(deps Deps, opts Options) *Store {
	s := &Store{
		storage:   deps.Storage,
		catalog:   deps.Catalog,
		session:   deps.Session,
		syncer:    deps.Syncer,
		navigator: opts.Navigator,
		metrics:   opts.Metrics,
		now:       opts.Now,
		promoted:  make(map[uint]struct{}, len(opts.Promotion.ProductIDs)),
		products:  []models.Product{},
		cart:      []models.CartLine{},
		wishlist:  []models.WishlistEntry{},
		orders:    []models.Order{},
	}
	if s.storage == nil {
		s.storage = storage.NewMemoryStorage()
	}
	if s.now == nil {
		s.now = time.Now
	}
	for _, id := range opts.Promotion.ProductIDs {
		s.promoted[id] = struct{}{}
	}
	s.discountPercent = decimal.NewFromInt(int64(opts.Promotion.DiscountPercent))

	ctx := context.Background()
	hydrate(ctx, s.storage, constants.StorageKeyCart, &s.cart)
	hydrate(ctx, s.storage, constants.StorageKeyWishlist, &s.wishlist)
	hydrate(ctx, s.storage, constants.StorageKeyOrders, &s.orders)
	return s
}

func hydrate[T any](ctx context.Context, st storage.Storage, key string, dest *[]T) {
	var items []T
	ok, err := storage.LoadJSON(ctx, st, key, &items)
	if err != nil {
		logger.Warnw("store_hydrate_failed", "key", key, "error", err)
		return
	}
	if !ok || items == nil {
		return
	}
	*dest = items
}

// Init 并发拉取商品目录与（已登录时）服务端收藏，两者结束后返回；只执行一次
func (s *Store) Init(ctx context.Context) {
	s.initOnce.Do(func() {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ReloadCatalog(ctx)
		}()
		if s.token(ctx) != "" {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.ReconcileWishlist(ctx)
			}()
		}
		wg.Wait()
	})
}

// ReloadCatalog 拉取商品目录并叠加本地促销；失败时保留现有目录并记录错误信息
func (s *Store) ReloadCatalog(ctx context.Context) {
	if s.catalog == nil {
		return
	}
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()

	products, err := s.catalog.ListProducts(ctx)
	s.metrics.CatalogFetch(ctx, err == nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if err != nil {
		s.catalogErr = err.Error()
		logger.Warnw("store_catalog_fetch_failed", "error", err)
		return
	}
	overlaid := make([]models.Product, 0, len(products))
	for _, p := range products {
		overlaid = append(overlaid, s.applyDiscount(p))
	}
	s.products = overlaid
	s.catalogErr = ""
}

func (s *Store) applyDiscount(p models.Product) models.Product {
	out := p.Clone()
	if _, ok := s.promoted[p.ID]; ok {
		out.Discount = models.NewMoneyFromDecimal(p.Price.Decimal.Mul(s.discountPercent).Div(decimal.NewFromInt(100)))
		return out
	}
	out.Discount = models.ZeroMoney()
	return out
}

// ReconcileWishlist 用服务端收藏整体替换本地收藏；未登录时不做任何事
func (s *Store) ReconcileWishlist(ctx context.Context) {
	token := s.token(ctx)
	if token == "" || s.catalog == nil {
		return
	}
	items, err := s.catalog.ListWishlist(ctx, token)
	if err != nil {
		logger.Warnw("store_wishlist_fetch_failed", "error", err)
		return
	}
	entries := make([]models.WishlistEntry, 0, len(items))
	seen := make(map[uint]struct{}, len(items))
	for _, item := range items {
		// 商品已被后端下架时 product 为 null
		if item.Product == nil {
			continue
		}
		if _, dup := seen[item.Product.ID]; dup {
			continue
		}
		seen[item.Product.ID] = struct{}{}
		entries = append(entries, models.WishlistEntry{Product: item.Product.Clone()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.wishlist = entries
	s.persist(ctx, constants.StorageKeyWishlist, s.wishlist)
}

// AddToCart 加入购物车：已有同商品行时数量 +1，否则新增数量为 1 的行
func (s *Store) AddToCart(ctx context.Context, item models.CartLine, openDrawer bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.cartIndex(item.ID); idx >= 0 {
		s.cart[idx].Quantity++
	} else {
		s.cart = append(s.cart, models.CartLine{
			Product:  item.Product.Clone(),
			Quantity: 1,
			Color:    item.Color,
			Size:     item.Size,
		})
	}
	if openDrawer {
		s.drawerOpen = true
	}
	s.persist(ctx, constants.StorageKeyCart, s.cart)
	s.metrics.CartMutation(ctx, "add")
}

// DecreaseQuantity 数量 -1，减到 0 时移除该行；商品不在购物车时忽略
func (s *Store) DecreaseQuantity(ctx context.Context, productID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.cartIndex(productID)
	if idx < 0 {
		return
	}
	if s.cart[idx].Quantity <= 1 {
		s.cart = append(s.cart[:idx], s.cart[idx+1:]...)
	} else {
		s.cart[idx].Quantity--
	}
	s.persist(ctx, constants.StorageKeyCart, s.cart)
	s.metrics.CartMutation(ctx, "decrease")
}

// RemoveFromCart 移除整行
func (s *Store) RemoveFromCart(ctx context.Context, productID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.cartIndex(productID)
	if idx >= 0 {
		s.cart = append(s.cart[:idx], s.cart[idx+1:]...)
	}
	s.persist(ctx, constants.StorageKeyCart, s.cart)
	s.metrics.CartMutation(ctx, "remove")
}

// ClearCart 清空购物车
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = []models.CartLine{}
	s.persist(ctx, constants.StorageKeyCart, s.cart)
	s.metrics.CartMutation(ctx, "clear")
}

// AddToWishlist 加入收藏并同步后端；未登录时不做任何事
func (s *Store) AddToWishlist(ctx context.Context, product models.Product) {
	token := s.token(ctx)
	if token == "" {
		return
	}
	s.mu.Lock()
	changed := s.wishlistIndex(product.ID) < 0
	if changed {
		s.wishlist = append(s.wishlist, models.WishlistEntry{Product: product.Clone()})
	}
	s.persist(ctx, constants.StorageKeyWishlist, s.wishlist)
	s.mu.Unlock()

	if changed {
		s.sync(ctx, token, product.ID)
	}
}

// RemoveFromWishlist 移除收藏；未登录也执行本地移除，仅在已登录时同步后端
func (s *Store) RemoveFromWishlist(ctx context.Context, productID uint) {
	token := s.token(ctx)
	s.mu.Lock()
	idx := s.wishlistIndex(productID)
	changed := idx >= 0
	if changed {
		s.wishlist = append(s.wishlist[:idx], s.wishlist[idx+1:]...)
	}
	s.persist(ctx, constants.StorageKeyWishlist, s.wishlist)
	s.mu.Unlock()

	if changed && token != "" {
		s.sync(ctx, token, productID)
	}
}

// ToggleWishlist 收藏切换入口：已收藏则移除；未收藏且未登录时跳转登录
func (s *Store) ToggleWishlist(ctx context.Context, product models.Product) ToggleResult {
	if s.IsInWishlist(product.ID) {
		s.RemoveFromWishlist(ctx, product.ID)
		return ToggleRemoved
	}
	if s.token(ctx) == "" {
		if s.navigator != nil {
			s.navigator.RedirectToLogin()
		}
		return ToggleLoginRequired
	}
	s.AddToWishlist(ctx, product)
	return ToggleAdded
}

// IsInWishlist 是否已收藏
func (s *Store) IsInWishlist(productID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlistIndex(productID) >= 0
}

// PlaceOrder 以当前购物车生成订单（合计按原价），追加到订单历史并清空购物车
func (s *Store) PlaceOrder(ctx context.Context, details models.OrderDetails) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placeOrderLocked(ctx, details)
}

// PlaceOrderWith 结算：在同一把锁内取购物车汇总、交给 prepare 生成下单字段并下单。
// prepare 返回错误时不做任何修改；prepare 内不可再调用 Store 的方法。
func (s *Store) PlaceOrderWith(ctx context.Context, prepare func(models.CartSummary) (models.OrderDetails, error)) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cart) == 0 {
		return models.Order{}, ErrCartEmpty
	}
	details, err := prepare(models.SummarizeCart(s.cart))
	if err != nil {
		return models.Order{}, err
	}
	return s.placeOrderLocked(ctx, details), nil
}

func (s *Store) placeOrderLocked(ctx context.Context, details models.OrderDetails) models.Order {
	now := s.now()
	items := make([]models.CartLine, len(s.cart))
	total := models.ZeroMoney()
	for i, line := range s.cart {
		items[i] = line.Clone()
		total = total.Add(line.RawLineTotal())
	}

	order := models.Order{
		ID:            strconv.FormatInt(now.UnixMilli(), 10),
		RemoteID:      details.RemoteID,
		CreatedAt:     now,
		Items:         items,
		Total:         total,
		Status:        details.Status,
		PaymentMethod: details.PaymentMethod,
		Payment:       details.Payment,
		Shipping:      details.Shipping,
		Note:          details.Note,
	}
	if order.Status == "" {
		order.Status = constants.OrderStatusPending
	}
	order = order.Clone()

	s.orders = append(s.orders, order)
	s.cart = []models.CartLine{}
	s.persist(ctx, constants.StorageKeyOrders, s.orders)
	s.persist(ctx, constants.StorageKeyCart, s.cart)
	s.metrics.OrderPlaced(ctx, total.InexactFloat64())
	return order.Clone()
}

// GetOrderByID 按 ID 查找订单
func (s *Store) GetOrderByID(id string) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.ID == id {
			return order.Clone(), true
		}
	}
	return models.Order{}, false
}

// AttachRemoteID 记录服务端下单返回的订单号
func (s *Store) AttachRemoteID(ctx context.Context, orderID, remoteID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].RemoteID = remoteID
			s.persist(ctx, constants.StorageKeyOrders, s.orders)
			return true
		}
	}
	return false
}

// ClearSessionData 清空购物车、收藏、订单并删除对应存储 key（登出时调用）
func (s *Store) ClearSessionData(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = []models.CartLine{}
	s.wishlist = []models.WishlistEntry{}
	s.orders = []models.Order{}
	s.drawerOpen = false
	for _, key := range []string{constants.StorageKeyCart, constants.StorageKeyWishlist, constants.StorageKeyOrders} {
		if err := s.storage.Delete(ctx, key); err != nil {
			logger.Warnw("store_clear_key_failed", "key", key, "error", err)
		}
	}
}

// Products 商品目录副本
func (s *Store) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.products))
	for i, p := range s.products {
		out[i] = p.Clone()
	}
	return out
}

// Product 按 ID 查找目录中的商品
func (s *Store) Product(id uint) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return models.Product{}, false
}

// CatalogError 最近一次目录拉取的错误信息；成功后清空
func (s *Store) CatalogError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalogErr
}

// Loading 目录是否正在拉取
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Cart 购物车副本
func (s *Store) Cart() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.cart)
}

// CartSummary 购物车汇总
func (s *Store) CartSummary() models.CartSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SummarizeCart(s.cart)
}

// Wishlist 收藏副本
func (s *Store) Wishlist() []models.WishlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.WishlistEntry, len(s.wishlist))
	for i, entry := range s.wishlist {
		out[i] = models.WishlistEntry{Product: entry.Product.Clone()}
	}
	return out
}

// Orders 订单历史副本
func (s *Store) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, len(s.orders))
	for i, order := range s.orders {
		out[i] = order.Clone()
	}
	return out
}

// DrawerOpen 购物车抽屉是否展开
func (s *Store) DrawerOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawerOpen
}

// SetDrawerOpen 设置购物车抽屉状态
func (s *Store) SetDrawerOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawerOpen = open
}

func (s *Store) token(ctx context.Context) string {
	if s.session == nil {
		return ""
	}
	return s.session.Token(ctx)
}

func (s *Store) sync(ctx context.Context, token string, productID uint) {
	if s.syncer == nil {
		return
	}
	s.syncer.SyncToggle(ctx, token, productID)
}

// 调用方持有 s.mu
func (s *Store) persist(ctx context.Context, key string, value interface{}) {
	if err := storage.SaveJSON(ctx, s.storage, key, value); err != nil {
		logger.Warnw("store_persist_failed", "key", key, "error", err)
	}
}

func (s *Store) cartIndex(productID uint) int {
	for i, line := range s.cart {
		if line.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) wishlistIndex(productID uint) int {
	for i, entry := range s.wishlist {
		if entry.ID == productID {
			return i
		}
	}
	return -1
}

func cloneLines(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, len(lines))
	for i, line := range lines {
		out[i] = line.Clone()
	}
	return out
}
