package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"pending to preparing", OrderStatusPending, OrderStatusPreparing, true},
		{"pending to completed", OrderStatusPending, OrderStatusCompleted, true},
		{"completed to received", OrderStatusCompleted, OrderStatusReceived, true},
		{"preparing to pending", OrderStatusPreparing, OrderStatusPending, false},
		{"received anywhere", OrderStatusReceived, OrderStatusCompleted, false},
		{"same status", OrderStatusPreparing, OrderStatusPreparing, false},
		{"unknown target", OrderStatusPending, OrderStatus("Cancelled"), false},
		{"unknown source", OrderStatus("Cancelled"), OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestOrderItemDisplay(t *testing.T) {
	tests := []struct {
		name string
		item OrderItem
		want string
	}{
		{"name and size", OrderItem{Name: "Matcha Latte", Size: "Tall"}, "Matcha Latte ∙ Tall"},
		{"no size", OrderItem{Name: "Classic Takoyaki"}, "Classic Takoyaki"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Display(); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOrderActive(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusPreparing, OrderStatusOutForDelivery} {
		o := Order{Status: status}
		if !o.Active() {
			t.Errorf("order with status %q should be active", status)
		}
	}
	for _, status := range []OrderStatus{OrderStatusCompleted, OrderStatusReceived} {
		o := Order{Status: status}
		if o.Active() {
			t.Errorf("order with status %q should not be active", status)
		}
	}
}

func TestAddressDeliverable(t *testing.T) {
	a := Address{HouseNumber: "12", Street: "Mabini St", Barangay: "Poblacion"}
	want := "12, Mabini St, Poblacion, San Luis, Batangas, Philippines"
	if got := a.Deliverable(); got != want {
		t.Errorf("Deliverable() = %q, want %q", got, want)
	}

	empty := Address{}
	if got := empty.Deliverable(); got != "No address provided" {
		t.Errorf("Deliverable() on empty address = %q", got)
	}
}
