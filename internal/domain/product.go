package domain

import "time"

// Product is one sellable catalog entry. Name+size pairs are distinct
// rows, each with its own price and stock counts. Available and
// Reserved follow the two-counter model: adding to a cart moves stock
// from available to reserved, checkout consumes the reservation, and
// removing a cart line releases it back.
type Product struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Category  string     `json:"category"`
	Size      string     `json:"size"`
	Price     int64      `json:"price"`
	Available int        `json:"available"`
	Reserved  int        `json:"reserved"`
	AddedAt   time.Time  `json:"added_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
