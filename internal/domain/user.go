package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Address struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	HouseNumber string `json:"house_number"`
	Street      string `json:"street"`
	Barangay    string `json:"barangay"`
}

// Deliverable renders the address as a single delivery line. Empty
// fields are skipped, matching how receipts print it.
func (a Address) Deliverable() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.HouseNumber, a.Street, a.Barangay} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "No address provided"
	}
	parts = append(parts, "San Luis, Batangas, Philippines")
	return strings.Join(parts, ", ")
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Address   Address   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}
