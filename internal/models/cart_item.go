package models

// CartLine 购物车行：商品快照 + 数量 + 加购时选择的规格
type CartLine struct {
	Product
	Quantity int    `json:"quantity"`        // 数量（>= 1）
	Color    string `json:"color,omitempty"` // 选择的颜色
	Size     string `json:"size,omitempty"`  // 选择的尺码
}

// UnitPrice 实际单价（考虑优惠）
func (l CartLine) UnitPrice() Money {
	return l.Product.EffectivePrice()
}

// LineTotal 行小计 = 实际单价 × 数量
func (l CartLine) LineTotal() Money {
	return l.UnitPrice().Times(l.Quantity)
}

// RawLineTotal 原价小计（不考虑优惠）
func (l CartLine) RawLineTotal() Money {
	return l.Price.Times(l.Quantity)
}

// Clone 深拷贝购物车行
func (l CartLine) Clone() CartLine {
	out := l
	out.Product = l.Product.Clone()
	return out
}

// CartSummary 购物车汇总
type CartSummary struct {
	Lines         int   `json:"lines"`          // 行数
	Items         int   `json:"items"`          // 商品件数
	Subtotal      Money `json:"subtotal"`       // 优惠后合计
	RawSubtotal   Money `json:"raw_subtotal"`   // 原价合计
	DiscountTotal Money `json:"discount_total"` // 优惠合计
}

// SummarizeCart 计算购物车汇总
func SummarizeCart(lines []CartLine) CartSummary {
	summary := CartSummary{
		Subtotal:    ZeroMoney(),
		RawSubtotal: ZeroMoney(),
	}
	for _, line := range lines {
		summary.Lines++
		summary.Items += line.Quantity
		summary.Subtotal = summary.Subtotal.Add(line.LineTotal())
		summary.RawSubtotal = summary.RawSubtotal.Add(line.RawLineTotal())
	}
	summary.DiscountTotal = summary.RawSubtotal.Sub(summary.Subtotal)
	return summary
}
