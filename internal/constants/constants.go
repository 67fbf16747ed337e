package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 本地持久化 key（cart/wishlist/orders 由 store 持有）
const (
	StorageKeyCart     = "cart"
	StorageKeyWishlist = "wishlist"
	StorageKeyOrders   = "orders"
	StorageKeyToken    = "auth_token"
	StorageKeyUserInfo = "user_info"
)

// 存储驱动
const (
	StorageDriverMemory   = "memory"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
)

// 收藏切换结果
const (
	WishlistToggleAdded         = "added"
	WishlistToggleRemoved       = "removed"
	WishlistToggleLoginRequired = "login_required"
)

// 模拟支付方式与状态
const (
	PaymentMethodCard           = "card"
	PaymentMethodCashOnDelivery = "cod"
	PaymentMethodWallet         = "wallet"

	PaymentStatusPaid    = "paid"
	PaymentStatusPending = "pending"
)

// 队列相关常量
const (
	QueueDefault       = "default"
	TaskWishlistToggle = "wishlist:toggle"
)

// LoginPath 未登录时前端跳转的登录页
const LoginPath = "/login"

// DefaultPromotionPercent 促销商品默认折扣百分比
const DefaultPromotionPercent = 20
