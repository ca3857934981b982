package cart

import (
	"context"
	"database/sql"

	"github.com/gwangju-cafe/cafe-backend/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, product_id, name, size, unit_price, quantity, subtotal, added_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY added_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Name, &item.Size,
			&item.UnitPrice, &item.Quantity, &item.Subtotal, &item.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *Repository) Get(ctx context.Context, userID, itemID string) (*domain.CartItem, error) {
	item := &domain.CartItem{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, product_id, name, size, unit_price, quantity, subtotal, added_at
		FROM cart_items
		WHERE id = $1 AND user_id = $2
	`, itemID, userID).Scan(&item.ID, &item.UserID, &item.ProductID, &item.Name, &item.Size,
		&item.UnitPrice, &item.Quantity, &item.Subtotal, &item.AddedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return item, nil
}

func (r *Repository) Insert(ctx context.Context, item *domain.CartItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, name, size, unit_price, quantity, subtotal, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, item.ID, item.UserID, item.ProductID, item.Name, item.Size,
		item.UnitPrice, item.Quantity, item.Subtotal, item.AddedAt)
	return err
}

func (r *Repository) Delete(ctx context.Context, userID, itemID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE id = $1 AND user_id = $2
	`, itemID, userID)
	return err
}

func (r *Repository) DeleteAll(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}
