package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gwangju-cafe/cafe-backend/internal/domain"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNothingReserved   = errors.New("insufficient reserved stock")
	ErrProductInCarts    = errors.New("product is held in carts")
)

const foreignKeyViolation = "23503"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const productColumns = `id, name, category, size, price, available, reserved, added_at, expires_at`

func (r *Repository) ListAll(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY category, name, size
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p := &domain.Product{}
	err := scanProduct(r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id), p)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) Create(ctx context.Context, p *domain.Product) error {
	p.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, size, price, available, reserved, added_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
	`, p.ID, p.Name, p.Category, p.Size, p.Price, p.Available, p.AddedAt, p.ExpiresAt)
	return err
}

// Update rewrites the editable catalog fields. Stock counters are
// managed through Reserve/Release/Commit, except that admins may set
// the available count directly.
func (r *Repository) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, size = $4, price = $5, available = $6, expires_at = $7
		WHERE id = $1
	`, p.ID, p.Name, p.Category, p.Size, p.Price, p.Available, p.ExpiresAt)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, p.ID)
}

// Delete retires a product. Past order snapshots keep their lines
// (the product reference is nulled out), but a product sitting in a
// cart holds live reservations and cannot be removed.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return false, ErrProductInCarts
		}
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// Reserve moves quantity from available to reserved. The conditional
// UPDATE makes the check-and-decrement a single atomic step, so two
// racing carts cannot both take the last unit.
func (r *Repository) Reserve(ctx context.Context, productID string, quantity int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET available = available - $2, reserved = reserved + $2
		WHERE id = $1 AND available >= $2
	`, productID, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrInsufficientStock
	}

	return nil
}

// Release returns reserved stock to available when a cart line is
// removed or the cart is cleared.
func (r *Repository) Release(ctx context.Context, productID string, quantity int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET available = available + $2, reserved = reserved - $2
		WHERE id = $1 AND reserved >= $2
	`, productID, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNothingReserved
	}

	return nil
}

// Commit consumes a reservation at checkout: the stock is sold and
// leaves both counters.
func (r *Repository) Commit(ctx context.Context, productID string, quantity int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET reserved = reserved - $2
		WHERE id = $1 AND reserved >= $2
	`, productID, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNothingReserved
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner, p *domain.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Category, &p.Size, &p.Price,
		&p.Available, &p.Reserved, &p.AddedAt, &p.ExpiresAt)
}
