package domain

import "time"

const (
	// MaxLineQuantity caps a single add-to-cart request.
	MaxLineQuantity = 15

	// ShippingFee is the flat delivery charge in pesos.
	ShippingFee int64 = 50

	// BonusThreshold is the total cart quantity at which checkout adds
	// the free drink line.
	BonusThreshold = 10

	// BonusItemName and BonusItemSize identify the promotional free
	// drink added at checkout. It is display-only: never stored in the
	// cart and never counted toward the items total.
	BonusItemName = "Matcha Latte"
	BonusItemSize = "Tall"
)

type CartItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Size      string    `json:"size"`
	UnitPrice int64     `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	Subtotal  int64     `json:"subtotal"`
	AddedAt   time.Time `json:"added_at"`
}

// CartQuantity sums line quantities, the figure the bonus rule is
// judged against.
func CartQuantity(items []CartItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// CartTotal sums line subtotals, excluding shipping.
func CartTotal(items []CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Subtotal
	}
	return total
}
