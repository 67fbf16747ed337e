// Package payment 本地模拟支付，只生成订单需要的支付元数据，不对接任何网关。
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/models"

	"github.com/google/uuid"
)

var (
	ErrMethodUnsupported = errors.New("payment method unsupported")
	ErrAmountInvalid     = errors.New("payment amount invalid")
	ErrCardInvalid       = errors.New("payment card invalid")
)

// Request 模拟支付输入
type Request struct {
	Method     string
	Amount     models.Money
	CardNumber string
}

// Simulator 模拟支付
type Simulator struct {
	now   func() time.Time
	newID func() string
}

// NewSimulator 创建模拟支付
func NewSimulator() *Simulator {
	return &Simulator{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Charge 按支付方式生成支付结果：card/wallet 立即支付成功，cod 待支付
func (s *Simulator) Charge(ctx context.Context, req Request) (*models.PaymentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrAmountInvalid, req.Amount)
	}
	method := strings.ToLower(strings.TrimSpace(req.Method))
	info := &models.PaymentInfo{
		Method: method,
		Amount: req.Amount,
	}
	switch method {
	case constants.PaymentMethodCard:
		digits := normalizeCardNumber(req.CardNumber)
		if len(digits) < 12 || len(digits) > 19 || !luhnValid(digits) {
			return nil, ErrCardInvalid
		}
		info.CardLast4 = digits[len(digits)-4:]
		s.markPaid(info)
	case constants.PaymentMethodWallet:
		s.markPaid(info)
	case constants.PaymentMethodCashOnDelivery:
		info.Status = constants.PaymentStatusPending
	default:
		return nil, fmt.Errorf("%w: %q", ErrMethodUnsupported, req.Method)
	}
	return info, nil
}

func (s *Simulator) markPaid(info *models.PaymentInfo) {
	paidAt := s.now()
	info.Status = constants.PaymentStatusPaid
	info.TransactionID = "sim_" + s.newID()
	info.PaidAt = &paidAt
}

func normalizeCardNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r == ' ' || r == '-' {
			continue
		}
		if !unicode.IsDigit(r) {
			return ""
		}
		b.WriteRune(r)
	}
	return b.String()
}

func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
