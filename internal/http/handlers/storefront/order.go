package storefront

import (
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/http/handlers/shared"
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/payment"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	PaymentMethod string                  `json:"payment_method" binding:"required"`
	CardNumber    string                  `json:"card_number"`
	Shipping      *models.ShippingAddress `json:"shipping" binding:"required"`
	Note          string                  `json:"note"`
}

// CheckoutResponse 结算结果
type CheckoutResponse struct {
	Order     models.Order `json:"order"`
	Submitted bool         `json:"submitted"`
}

// ListOrders 订单历史
func (h *Handler) ListOrders(c *gin.Context) {
	orders := h.Store.Orders()
	response.SuccessList(c, orders, len(orders))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	order, ok := h.Store.GetOrderByID(c.Param("id"))
	if !ok {
		response.NotFound(c, "order not found")
		return
	}
	response.Success(c, order)
}

// Checkout 模拟支付后下单；配置开启时同步提交到后端
func (h *Handler) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	token := h.Session.Token(ctx)
	if token == "" {
		shared.RespondLoginRequired(c)
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}
	// 收款金额与订单明细取自同一份购物车快照；收款按优惠后金额
	order, err := h.Store.PlaceOrderWith(ctx, func(summary models.CartSummary) (models.OrderDetails, error) {
		info, err := h.Payment.Charge(ctx, payment.Request{
			Method:     req.PaymentMethod,
			Amount:     summary.Subtotal,
			CardNumber: req.CardNumber,
		})
		if err != nil {
			return models.OrderDetails{}, err
		}
		status := constants.OrderStatusPending
		if info.Status == constants.PaymentStatusPaid {
			status = constants.OrderStatusProcessing
		}
		return models.OrderDetails{
			Status:        status,
			PaymentMethod: info.Method,
			Payment:       info,
			Shipping:      req.Shipping,
			Note:          req.Note,
		}, nil
	})
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "payment failed")
		return
	}

	resp := CheckoutResponse{Order: order}
	if h.Config.Backend.SubmitOrders {
		result, err := h.BackendClient.SubmitOrder(ctx, token, order)
		if err != nil {
			shared.RequestLog(c).Warnw("checkout_submit_order_failed", "order_id", order.ID, "error", err)
		} else if result.ID != "" {
			h.Store.AttachRemoteID(ctx, order.ID, result.ID)
			resp.Order.RemoteID = result.ID
			resp.Submitted = true
		}
	}
	response.Success(c, resp)
}
