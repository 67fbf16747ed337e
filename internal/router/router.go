package router

import (
	"github.com/dujiao-next/storefront/internal/cache"
	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/http/handlers/storefront"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()
	h := storefront.New(c)

	redisPrefix := cache.Prefix()
	redisClient := cache.Client()
	toggleRule := RateLimitRule{
		Prefix:        redisPrefix + ":rate:wishlist_toggle",
		WindowSeconds: cfg.Security.SyncRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.SyncRateLimit.MaxRequests,
	}
	checkoutRule := RateLimitRule{
		Prefix:        redisPrefix + ":rate:checkout",
		WindowSeconds: cfg.Security.SyncRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.SyncRateLimit.MaxRequests,
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", h.Healthz)

	apiV1 := r.Group("/api/v1")
	{
		products := apiV1.Group("/products")
		{
			products.GET("", h.GetProducts)
			products.GET("/:id", h.GetProduct)
			products.POST("/reload", h.ReloadProducts)
		}

		cart := apiV1.Group("/cart")
		{
			cart.GET("", h.GetCart)
			cart.DELETE("", h.ClearCart)
			cart.POST("/items", h.AddCartItem)
			cart.POST("/items/:id/decrease", h.DecreaseCartItem)
			cart.DELETE("/items/:id", h.DeleteCartItem)
			cart.PUT("/drawer", h.SetCartDrawer)
		}

		wishlist := apiV1.Group("/wishlist")
		{
			wishlist.GET("", h.GetWishlist)
			wishlist.GET("/:id", h.GetWishlistItem)
			wishlist.POST("/toggle", RateLimitMiddleware(redisClient, toggleRule, KeyByIPAndJSONField("product_id")), h.ToggleWishlist)
			wishlist.DELETE("/:id", h.DeleteWishlistItem)
		}

		apiV1.GET("/orders", h.ListOrders)
		apiV1.GET("/orders/:id", h.GetOrder)
		apiV1.POST("/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByIP), h.Checkout)

		apiV1.GET("/session", h.GetSession)
		apiV1.POST("/session", h.CreateSession)
		apiV1.DELETE("/session", h.DeleteSession)
	}

	return r
}
