package storefront

import (
	"encoding/json"

	"github.com/dujiao-next/storefront/internal/http/handlers/shared"
	"github.com/dujiao-next/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SessionRequest 登录流程交接的 token 与用户资料
type SessionRequest struct {
	Token string          `json:"token" binding:"required"`
	User  json.RawMessage `json:"user"`
}

// GetSession 当前会话
func (h *Handler) GetSession(c *gin.Context) {
	response.Success(c, h.Session.Info(c.Request.Context()))
}

// CreateSession 保存登录凭证并以服务端收藏为准重建本地收藏
func (h *Handler) CreateSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}
	ctx := c.Request.Context()
	if err := h.Session.SignIn(ctx, req.Token, req.User); err != nil {
		respondWithMappedError(c, err, sessionErrorRules, response.CodeInternal, "save session failed")
		return
	}
	h.Store.ReconcileWishlist(ctx)
	response.Success(c, gin.H{
		"session":  h.Session.Info(ctx),
		"wishlist": h.Store.Wishlist(),
	})
}

// DeleteSession 登出：删除凭证并清空本地数据
func (h *Handler) DeleteSession(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.Session.SignOut(ctx); err != nil {
		shared.RespondError(c, response.CodeInternal, "clear session failed", err)
		return
	}
	h.Store.ClearSessionData(ctx)
	response.SuccessWithMsg(c, "signed out", nil)
}
