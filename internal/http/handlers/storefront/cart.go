package storefront

import (
	"github.com/dujiao-next/storefront/internal/http/handlers/shared"
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/models"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 加入购物车请求；product 为商品快照，缺省时按 product_id 从目录读取
type CartItemRequest struct {
	ProductID  uint            `json:"product_id"`
	Product    *models.Product `json:"product"`
	Quantity   int             `json:"quantity"`
	Color      string          `json:"color"`
	Size       string          `json:"size"`
	OpenDrawer *bool           `json:"open_drawer"`
}

// DrawerRequest 购物车抽屉状态
type DrawerRequest struct {
	Open bool `json:"open"`
}

// CartResponse 购物车响应
type CartResponse struct {
	Items      []models.CartLine  `json:"items"`
	Summary    models.CartSummary `json:"summary"`
	DrawerOpen bool               `json:"drawer_open"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	response.Success(c, h.cartResponse())
}

// AddCartItem 加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}
	product, ok := h.resolveProduct(req.ProductID, req.Product)
	if !ok {
		response.NotFound(c, "product not found")
		return
	}
	openDrawer := true
	if req.OpenDrawer != nil {
		openDrawer = *req.OpenDrawer
	}
	h.Store.AddToCart(c.Request.Context(), models.CartLine{
		Product:  product,
		Quantity: req.Quantity,
		Color:    req.Color,
		Size:     req.Size,
	}, openDrawer)
	response.Success(c, h.cartResponse())
}

// DecreaseCartItem 数量减一
func (h *Handler) DecreaseCartItem(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	h.Store.DecreaseQuantity(c.Request.Context(), id)
	response.Success(c, h.cartResponse())
}

// DeleteCartItem 移除购物车行
func (h *Handler) DeleteCartItem(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	h.Store.RemoveFromCart(c.Request.Context(), id)
	response.Success(c, h.cartResponse())
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	h.Store.ClearCart(c.Request.Context())
	response.Success(c, h.cartResponse())
}

// SetCartDrawer 设置购物车抽屉状态
func (h *Handler) SetCartDrawer(c *gin.Context) {
	var req DrawerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}
	h.Store.SetDrawerOpen(req.Open)
	response.Success(c, gin.H{"drawer_open": h.Store.DrawerOpen()})
}

func (h *Handler) cartResponse() CartResponse {
	return CartResponse{
		Items:      h.Store.Cart(),
		Summary:    h.Store.CartSummary(),
		DrawerOpen: h.Store.DrawerOpen(),
	}
}

// 请求自带快照优先，其次从目录读取（带促销价）
func (h *Handler) resolveProduct(id uint, snapshot *models.Product) (models.Product, bool) {
	if snapshot != nil && snapshot.ID != 0 {
		return *snapshot, true
	}
	if id == 0 {
		return models.Product{}, false
	}
	return h.Store.Product(id)
}
