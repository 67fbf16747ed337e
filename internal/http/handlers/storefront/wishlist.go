package storefront

import (
	"github.com/dujiao-next/storefront/internal/http/handlers/shared"
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/store"

	"github.com/gin-gonic/gin"
)

// WishlistToggleRequest 收藏切换请求
type WishlistToggleRequest struct {
	ProductID uint            `json:"product_id"`
	Product   *models.Product `json:"product"`
}

// GetWishlist 收藏列表
func (h *Handler) GetWishlist(c *gin.Context) {
	items := h.Store.Wishlist()
	response.SuccessList(c, items, len(items))
}

// GetWishlistItem 是否已收藏
func (h *Handler) GetWishlistItem(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	response.Success(c, gin.H{"product_id": id, "in_wishlist": h.Store.IsInWishlist(id)})
}

// ToggleWishlist 收藏切换；未登录且未收藏时返回 401 与登录跳转地址
func (h *Handler) ToggleWishlist(c *gin.Context) {
	var req WishlistToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}
	id := req.ProductID
	if req.Product != nil && req.Product.ID != 0 {
		id = req.Product.ID
	}
	if id == 0 {
		shared.RespondError(c, response.CodeBadRequest, "product_id is required", nil)
		return
	}
	product, found := h.resolveProduct(id, req.Product)
	if !found {
		// 目录未命中时只带 ID，由仓库判断移除、需登录或新增
		product = models.Product{ID: id}
	}

	result := h.Store.ToggleWishlist(c.Request.Context(), product)
	if result == store.ToggleLoginRequired {
		shared.RespondLoginRequired(c)
		return
	}
	response.Success(c, gin.H{
		"result":      result,
		"in_wishlist": result == store.ToggleAdded,
		"items":       h.Store.Wishlist(),
	})
}

// DeleteWishlistItem 移除收藏（游客也可清理本地收藏）
func (h *Handler) DeleteWishlistItem(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	h.Store.RemoveFromWishlist(c.Request.Context(), id)
	items := h.Store.Wishlist()
	response.SuccessList(c, items, len(items))
}
