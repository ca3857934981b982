package domain

import "time"

type OrderPlacedEvent struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Email      string      `json:"email"`
	Items      []OrderItem `json:"items"`
	FinalTotal int64       `json:"final_total"`
	Timestamp  time.Time   `json:"timestamp"`
}

type OrderStatusEvent struct {
	OrderID   string      `json:"order_id"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}
