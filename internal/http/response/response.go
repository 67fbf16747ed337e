package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构，业务错误同样返回 HTTP 200
type Response struct {
	StatusCode int         `json:"status_code"` // 业务状态码
	Msg        string      `json:"msg"`         // 提示消息
	Data       interface{} `json:"data"`        // 数据内容
}

// ListData 列表数据
type ListData struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

func write(c *gin.Context, statusCode int, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		StatusCode: statusCode,
		Msg:        msg,
		Data:       data,
	})
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, CodeOK, "success", data)
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	write(c, CodeOK, msg, data)
}

// SuccessList 列表响应；购物车、收藏、订单都是完整集合，不分页
func SuccessList(c *gin.Context, items interface{}, total int) {
	write(c, CodeOK, "success", ListData{Items: items, Total: total})
}

// Error 错误响应
func Error(c *gin.Context, statusCode int, msg string) {
	write(c, statusCode, msg, attachRequestID(c, nil))
}

// ErrorWithData 错误响应（带数据）
func ErrorWithData(c *gin.Context, statusCode int, msg string, data interface{}) {
	write(c, statusCode, msg, attachRequestID(c, data))
}

// NotFound 404响应
func NotFound(c *gin.Context, msg string) {
	Error(c, CodeNotFound, msg)
}

func requestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

// attachRequestID 错误数据里带上 request_id，便于对照日志
func attachRequestID(c *gin.Context, data interface{}) interface{} {
	id := requestID(c)
	if id == "" {
		return data
	}
	switch v := data.(type) {
	case nil:
		return gin.H{"request_id": id}
	case gin.H:
		if _, ok := v["request_id"]; !ok {
			v["request_id"] = id
		}
		return v
	case map[string]interface{}:
		if _, ok := v["request_id"]; !ok {
			v["request_id"] = id
		}
		return v
	default:
		return gin.H{"request_id": id, "data": data}
	}
}
