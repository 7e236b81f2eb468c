package domain

type Cart struct {
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice float64    `json:"total_price"`
}

type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Totals recomputes the cart aggregates from its items. TotalItems and
// TotalPrice are caches of this function, never independent state.
func Totals(items []CartItem) (totalItems int, totalPrice float64) {
	for _, item := range items {
		totalItems += item.Quantity
		totalPrice += float64(item.Quantity) * item.Product.SaleFormatPrice
	}
	return totalItems, totalPrice
}
