package shared

import (
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	RespondAppError(c, response.WrapError(code, msg, err))
}

// RespondAppError 按 AppError 输出响应
func RespondAppError(c *gin.Context, appErr *response.AppError) {
	if appErr == nil {
		response.Error(c, response.CodeInternal, "internal error")
		return
	}
	if appErr.Err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", appErr.Err,
		)
	}
	if appErr.Data != nil {
		response.ErrorWithData(c, appErr.Code, appErr.Message, appErr.Data)
		return
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// RespondLoginRequired 未登录，附带前端跳转地址
func RespondLoginRequired(c *gin.Context) {
	RespondAppError(c, response.WrapError(response.CodeUnauthorized, "login required", nil).WithData(gin.H{
		"redirect": constants.LoginPath,
	}))
}
