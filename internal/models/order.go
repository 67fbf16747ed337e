package models

import "time"

// ShippingAddress 收货信息
type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// PaymentInfo 支付元数据（本地模拟支付产生）
type PaymentInfo struct {
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	TransactionID string     `json:"transaction_id,omitempty"`
	Amount        Money      `json:"amount"`
	CardLast4     string     `json:"card_last4,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// Order 本地订单记录
type Order struct {
	ID            string           `json:"id"`                  // 本地时间戳 ID
	RemoteID      string           `json:"remote_id,omitempty"` // 服务端下单成功后的 ID
	CreatedAt     time.Time        `json:"created_at"`          // 创建时间
	Items         []CartLine       `json:"items"`               // 下单时购物车快照
	Total         Money            `json:"total"`               // 合计
	Status        string           `json:"status"`              // 订单状态
	PaymentMethod string           `json:"payment_method,omitempty"`
	Payment       *PaymentInfo     `json:"payment,omitempty"`
	Shipping      *ShippingAddress `json:"shipping,omitempty"`
	Note          string           `json:"note,omitempty"`
}

// OrderDetails 下单时调用方补充的字段
type OrderDetails struct {
	Status        string
	PaymentMethod string
	Payment       *PaymentInfo
	Shipping      *ShippingAddress
	Note          string
	RemoteID      string
}

// Clone 深拷贝订单
func (o Order) Clone() Order {
	out := o
	if o.Items != nil {
		out.Items = make([]CartLine, len(o.Items))
		for i, item := range o.Items {
			out.Items[i] = item.Clone()
		}
	}
	if o.Payment != nil {
		payment := *o.Payment
		out.Payment = &payment
	}
	if o.Shipping != nil {
		shipping := *o.Shipping
		out.Shipping = &shipping
	}
	return out
}
