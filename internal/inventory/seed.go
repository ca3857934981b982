package inventory

import (
	"context"
	"math/rand"
	"time"

	"github.com/gwangju-cafe/cafe-backend/internal/domain"
)

// GenerateCatalog builds the full café menu with a stock count per
// name+size pair supplied by stockFn. Perishable categories get an
// expiration date one week out; drinks carry none.
func GenerateCatalog(now time.Time, stockFn func() int) []domain.Product {
	if stockFn == nil {
		stockFn = func() int { return rand.Intn(61) }
	}

	type sizePrice struct {
		size  string
		price int64
	}

	sizes3 := []sizePrice{{"Tall", 49}, {"Grande", 59}, {"Venti", 79}}
	sizes2 := []sizePrice{{"Tall", 49}, {"Grande", 59}}
	grandeOnly := []sizePrice{{"Grande", 59}}
	regular65 := []sizePrice{{"Regular", 65}}

	groups := []struct {
		category   string
		perishable bool
		names      []string
		sizes      []sizePrice
	}{
		{"Coffee", false, []string{
			"Iced Americano", "Iced Latte", "Iced Mochaccino", "Coffee Jelly",
			"Iced Salted Caramel", "Iced Matcha Espresso", "Iced Almond Macchiatto",
			"Iced Caramel Macchiatto", "Iced Hazelnut Macchiatto", "Iced Spanish Latte",
		}, sizes3},
		{"Non-Coffee", false, []string{
			"Americano", "Mochaccino", "Salted Caramel", "Matcha Espresso",
			"Hazelnut Macchiatto", "Caramel Macchiatto",
		}, sizes2},
		{"Non-Coffee", false, []string{
			"Blueberry Latte", "Strawberry Latte", "Matcha Latte", "Green Apple Latte",
			"Mango Latte", "Lychee Latte", "Choco Lava Latte", "Honey Peach Latte",
		}, sizes3},
		{"Non-Coffee", false, []string{
			"Lychee Fruit Tea", "Blueberry Fruit Tea", "Strawberry Fruit Tea",
			"Honey Peach Fruit Tea", "Mango Fruit Tea", "Green Apple Fruit Tea",
		}, sizes3},
		{"Secret Menu", false, []string{
			"Strawberry Milk Soda", "Blueberry Milk Soda", "Green Apple Soda",
			"Strawberry Soda", "Blueberry Soda", "Honey Peach Soda",
		}, sizes3},
		{"Secret Menu", false, []string{
			"Strawberry Oreo Latte", "Oreo Latte", "Berry Matcha",
			"Chocolate Strawberry", "Strawberry Macchiato", "Red Velvet Macchiato",
		}, sizes3},
		{"Secret Menu", false, []string{
			"Biscoff Latte", "Biscoff Matcha Latte", "Biscoff Oreo Latte", "Biscoff Iced Coffee",
		}, grandeOnly},
		{"Pastries", true, []string{
			"Classic Cinnamon", "Cream Cheese Glazed", "Caramel Pecan",
			"Classic Chocolate Cake", "Red Velvet Cake", "Coffee Cake",
		}, regular65},
		{"Takoyaki", true, []string{
			"Classic Takoyaki", "Shrimp Takoyaki", "Bacon Takoyaki",
		}, []sizePrice{{"Regular", 120}, {"Spicy", 130}}},
		{"Ramen", true, []string{"Chicken Ramen"}, []sizePrice{{"Original", 190}, {"Spicy", 200}}},
		{"Ramen", true, []string{"Beef Ramen"}, []sizePrice{{"Original", 220}, {"Spicy", 230}}},
	}

	expiry := now.AddDate(0, 0, 7)

	var catalog []domain.Product
	for _, g := range groups {
		for _, name := range g.names {
			for _, sp := range g.sizes {
				p := domain.Product{
					Name:      name,
					Category:  g.category,
					Size:      sp.size,
					Price:     sp.price,
					Available: stockFn(),
					AddedAt:   now,
				}
				if g.perishable {
					e := expiry
					p.ExpiresAt = &e
				}
				catalog = append(catalog, p)
			}
		}
	}

	return catalog
}

// Seed inserts the generated catalog, skipping name+size pairs that
// already exist so reseeding is safe.
func (r *Repository) Seed(ctx context.Context, products []domain.Product) (int, error) {
	inserted := 0
	for i := range products {
		p := &products[i]
		if p.ID == "" {
			result, err := r.db.ExecContext(ctx, `
				INSERT INTO products (id, name, category, size, price, available, reserved, added_at, expires_at)
				VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, 0, $6, $7)
				ON CONFLICT (name, size) DO NOTHING
			`, p.Name, p.Category, p.Size, p.Price, p.Available, p.AddedAt, p.ExpiresAt)
			if err != nil {
				return inserted, err
			}
			n, err := result.RowsAffected()
			if err != nil {
				return inserted, err
			}
			inserted += int(n)
		}
	}
	return inserted, nil
}
