package storefront

import (
	"errors"

	"github.com/dujiao-next/storefront/internal/http/handlers/shared"
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/payment"
	"github.com/dujiao-next/storefront/internal/session"
	"github.com/dujiao-next/storefront/internal/store"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 业务错误到接口响应的映射
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			shared.RespondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	shared.RespondError(c, fallbackCode, fallbackMsg, err)
}

var checkoutErrorRules = []mappedHandlerError{
	{target: store.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: payment.ErrCardInvalid, code: response.CodeBadRequest, msg: "card number invalid"},
	{target: payment.ErrMethodUnsupported, code: response.CodeBadRequest, msg: "payment method unsupported"},
	{target: payment.ErrAmountInvalid, code: response.CodeBadRequest, msg: "payment amount invalid"},
}

var sessionErrorRules = []mappedHandlerError{
	{target: session.ErrTokenEmpty, code: response.CodeBadRequest, msg: "token is required"},
}
