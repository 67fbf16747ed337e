package storefront

import (
	"errors"
	"strings"

	"github.com/dujiao-next/storefront/internal/http/handlers/shared"
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/models"

	"github.com/gin-gonic/gin"
)

// CatalogResponse 商品目录响应
type CatalogResponse struct {
	Items   []models.Product `json:"items"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
}

// GetProducts 商品目录，可按 category 过滤
func (h *Handler) GetProducts(c *gin.Context) {
	products := h.Store.Products()
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		filtered := make([]models.Product, 0, len(products))
		for _, p := range products {
			if strings.EqualFold(p.Category, category) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	response.Success(c, CatalogResponse{
		Items:   products,
		Loading: h.Store.Loading(),
		Error:   h.Store.CatalogError(),
	})
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	product, found := h.Store.Product(id)
	if !found {
		response.NotFound(c, "product not found")
		return
	}
	response.Success(c, product)
}

// ReloadProducts 手动重新拉取商品目录
func (h *Handler) ReloadProducts(c *gin.Context) {
	h.Store.ReloadCatalog(c.Request.Context())
	if msg := h.Store.CatalogError(); msg != "" {
		shared.RespondError(c, response.CodeBadGateway, "catalog reload failed", errors.New(msg))
		return
	}
	response.Success(c, CatalogResponse{Items: h.Store.Products()})
}
