package orders

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gwangju-cafe/cafe-backend/internal/domain"
)

// CustomerOrder pairs an order with the username of the customer who
// placed it, for staff-facing lists.
type CustomerOrder struct {
	domain.Order
	Username string `json:"username"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, address, items_total, shipping_fee, final_total, status, placed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, order.ID, order.UserID, order.Address, order.ItemsTotal, order.ShippingFee, order.FinalTotal, order.Status, order.PlacedAt)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		itemID := uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, size, unit_price, quantity, bonus)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
		`, itemID, order.ID, item.ProductID, item.Name, item.Size, item.UnitPrice, item.Quantity, item.Bonus)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, address, items_total, shipping_fee, final_total, status, rating, placed_at, received_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.Address, &order.ItemsTotal, &order.ShippingFee,
		&order.FinalTotal, &order.Status, &order.Rating, &order.PlacedAt, &order.ReceivedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]
	if order.Items == nil {
		order.Items = []domain.OrderItem{}
	}

	return order, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, address, items_total, shipping_fee, final_total, status, rating, placed_at, received_at
		FROM orders
		WHERE user_id = $1
		ORDER BY placed_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.collect(ctx, rows)
}

// ListActive returns every order still in the delivery pipeline, oldest
// first so staff work the queue in arrival order.
func (r *Repository) ListActive(ctx context.Context) ([]CustomerOrder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.user_id, o.address, o.items_total, o.shipping_fee, o.final_total, o.status, o.rating, o.placed_at, o.received_at, u.username
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.status NOT IN ('Completed', 'Received')
		ORDER BY o.placed_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.collectWithCustomer(ctx, rows)
}

// ListCompleted returns orders that finished the pipeline, for history
// and sales views.
func (r *Repository) ListCompleted(ctx context.Context) ([]CustomerOrder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.user_id, o.address, o.items_total, o.shipping_fee, o.final_total, o.status, o.rating, o.placed_at, o.received_at, u.username
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.status IN ('Completed', 'Received')
		ORDER BY o.placed_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.collectWithCustomer(ctx, rows)
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
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

	return r.GetByID(ctx, id)
}

// MarkReceived stamps the delivery confirmation time alongside the
// status change.
func (r *Repository) MarkReceived(ctx context.Context, id string, receivedAt time.Time) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, received_at = $2, updated_at = NOW()
		WHERE id = $3
	`, domain.OrderStatusReceived, receivedAt, id)
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

	return r.GetByID(ctx, id)
}

func (r *Repository) SetRating(ctx context.Context, id string, rating int) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET rating = $1, updated_at = NOW()
		WHERE id = $2
	`, rating, id)
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

	return r.GetByID(ctx, id)
}

func (r *Repository) collect(ctx context.Context, rows *sql.Rows) ([]domain.Order, error) {
	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Address, &order.ItemsTotal, &order.ShippingFee,
			&order.FinalTotal, &order.Status, &order.Rating, &order.PlacedAt, &order.ReceivedAt); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	items, err := r.loadItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for orderID, orderItems := range items {
		orderMap[orderID].Items = orderItems
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func (r *Repository) collectWithCustomer(ctx context.Context, rows *sql.Rows) ([]CustomerOrder, error) {
	orderMap := make(map[string]*CustomerOrder)
	var orderIDs []string

	for rows.Next() {
		var order CustomerOrder
		if err := rows.Scan(&order.ID, &order.UserID, &order.Address, &order.ItemsTotal, &order.ShippingFee,
			&order.FinalTotal, &order.Status, &order.Rating, &order.PlacedAt, &order.ReceivedAt, &order.Username); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []CustomerOrder{}, nil
	}

	items, err := r.loadItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for orderID, orderItems := range items {
		orderMap[orderID].Items = orderItems
	}

	orders := make([]CustomerOrder, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func (r *Repository) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, COALESCE(product_id::text, ''), name, size, unit_price, quantity, bonus
		FROM order_items
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := make(map[string][]domain.OrderItem)
	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.Size, &item.UnitPrice, &item.Quantity, &item.Bonus); err != nil {
			return nil, err
		}
		items[orderID] = append(items[orderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
