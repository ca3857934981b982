package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "Pending"
	OrderStatusPreparing      OrderStatus = "Preparing"
	OrderStatusOutForDelivery OrderStatus = "Out For Delivery"
	OrderStatusCompleted      OrderStatus = "Completed"
	OrderStatusReceived       OrderStatus = "Received"
)

var statusRank = map[OrderStatus]int{
	OrderStatusPending:        0,
	OrderStatusPreparing:      1,
	OrderStatusOutForDelivery: 2,
	OrderStatusCompleted:      3,
	OrderStatusReceived:       4,
}

// Valid reports whether s is one of the known workflow states.
func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an order may move from one status to
// another. The workflow is strictly forward-moving: staff drive orders
// up to Completed, the owning customer drives Completed to Received.
func CanTransition(from, to OrderStatus) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

type OrderItem struct {
	ProductID string `json:"product_id,omitempty"`
	Name      string `json:"name"`
	Size      string `json:"size"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Bonus     bool   `json:"bonus,omitempty"`
}

func (i OrderItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Display is the "name ∙ size" label used on receipts.
func (i OrderItem) Display() string {
	if i.Size == "" {
		return i.Name
	}
	return i.Name + " ∙ " + i.Size
}

type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Items       []OrderItem `json:"items"`
	Address     string      `json:"address"`
	ItemsTotal  int64       `json:"items_total"`
	ShippingFee int64       `json:"shipping_fee"`
	FinalTotal  int64       `json:"final_total"`
	Status      OrderStatus `json:"status"`
	Rating      int         `json:"rating"`
	PlacedAt    time.Time   `json:"placed_at"`
	ReceivedAt  *time.Time  `json:"received_at,omitempty"`
}

// Active reports whether the order is still in the delivery pipeline
// from the customer's point of view.
func (o *Order) Active() bool {
	return o.Status != OrderStatusCompleted && o.Status != OrderStatusReceived
}
