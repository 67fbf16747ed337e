package models

// Rating 商品评分汇总
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product 商品快照（来自后端，只读；Discount 为本地促销覆盖值）
type Product struct {
	ID          uint     `json:"id"`                    // 商品ID
	Title       string   `json:"title"`                 // 标题
	Price       Money    `json:"price"`                 // 单价
	Discount    Money    `json:"discount"`              // 优惠金额（0 表示无优惠）
	Image       string   `json:"image"`                 // 图片
	Category    string   `json:"category"`              // 分类
	Description string   `json:"description,omitempty"` // 描述
	Colors      []string `json:"colors,omitempty"`      // 可选颜色
	Sizes       []string `json:"sizes,omitempty"`       // 可选尺码
	Rating      Rating   `json:"rating"`                // 评分
}

// EffectivePrice 实际单价：有优惠时为 price - discount
func (p Product) EffectivePrice() Money {
	if p.Discount.IsPositive() {
		return p.Price.Sub(p.Discount)
	}
	return p.Price
}

// Clone 深拷贝商品（切片字段独立）
func (p Product) Clone() Product {
	out := p
	if p.Colors != nil {
		out.Colors = append([]string(nil), p.Colors...)
	}
	if p.Sizes != nil {
		out.Sizes = append([]string(nil), p.Sizes...)
	}
	return out
}

// WishlistEntry 收藏项（按商品ID去重，无数量）
type WishlistEntry struct {
	Product
}
