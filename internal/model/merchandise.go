package model

// MerchandiseItem is a product line sold at the venue shops.
type MerchandiseItem struct {
	ID            uint64 `json:"id"`                              // merchandise_items.id
	Name          string `json:"name" validate:"required"`        // merchandise_items.name
	Category      string `json:"category" validate:"required"`    // merchandise_items.category
	Price         Money  `json:"price" validate:"gte=0"`          // merchandise_items.price_cents
	StockQuantity int    `json:"stock_quantity" validate:"gte=0"` // merchandise_items.stock_quantity
	SoldCount     int    `json:"sold_count" validate:"gte=0"`     // merchandise_items.sold_count
}

// Revenue returns price × sold_count, saturating instead of wrapping.
func (m *MerchandiseItem) Revenue() Money {
	return m.Price.Mul(int64(m.SoldCount))
}
