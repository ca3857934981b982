package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gwangju-cafe/cafe-backend/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("cart item not found")
)

// Stock is the slice of the inventory repository the cart needs.
type Stock interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Reserve(ctx context.Context, productID string, quantity int) error
	Release(ctx context.Context, productID string, quantity int) error
}

// Lines is the cart line storage. *Repository satisfies it.
type Lines interface {
	ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error)
	Get(ctx context.Context, userID, itemID string) (*domain.CartItem, error)
	Insert(ctx context.Context, item *domain.CartItem) error
	Delete(ctx context.Context, userID, itemID string) error
	DeleteAll(ctx context.Context, userID string) error
}

// Service keeps the cart and the stock counters reconciled: every line
// held in a cart is backed by a reservation, and removing a line gives
// the reservation back.
type Service struct {
	lines  Lines
	stock  Stock
	logger *slog.Logger
}

func NewService(lines Lines, stock Stock, logger *slog.Logger) *Service {
	return &Service{
		lines:  lines,
		stock:  stock,
		logger: logger,
	}
}

func (s *Service) Items(ctx context.Context, userID string) ([]domain.CartItem, error) {
	return s.lines.ListByUser(ctx, userID)
}

// AddItem reserves stock for the requested product and appends a cart
// line. The quantity is clamped to [1, MaxLineQuantity] rather than
// rejected, mirroring the order form. Reservation happens before the
// line insert; a failed insert releases the reservation again.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		quantity = 1
	}
	if quantity > domain.MaxLineQuantity {
		quantity = domain.MaxLineQuantity
	}

	product, err := s.stock.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("look up product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if err := s.stock.Reserve(ctx, productID, quantity); err != nil {
		return nil, err
	}

	item := &domain.CartItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: product.ID,
		Name:      product.Name,
		Size:      product.Size,
		UnitPrice: product.Price,
		Quantity:  quantity,
		Subtotal:  product.Price * int64(quantity),
		AddedAt:   time.Now().UTC(),
	}

	if err := s.lines.Insert(ctx, item); err != nil {
		if relErr := s.stock.Release(ctx, productID, quantity); relErr != nil {
			s.logger.Error("failed to release reservation after insert failure",
				"error", relErr, "product_id", productID, "quantity", quantity)
		}
		return nil, fmt.Errorf("insert cart line: %w", err)
	}

	return item, nil
}

// RemoveItem deletes one cart line and returns its reservation to
// available stock.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	item, err := s.lines.Get(ctx, userID, itemID)
	if err != nil {
		return fmt.Errorf("look up cart line: %w", err)
	}
	if item == nil {
		return ErrItemNotFound
	}

	if err := s.lines.Delete(ctx, userID, itemID); err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}

	if err := s.stock.Release(ctx, item.ProductID, item.Quantity); err != nil {
		return fmt.Errorf("release stock for %s: %w", item.ProductID, err)
	}

	return nil
}

// Clear empties the cart and releases every reservation. An empty
// cart is a no-op.
func (s *Service) Clear(ctx context.Context, userID string) error {
	items, err := s.lines.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list cart lines: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	if err := s.lines.DeleteAll(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	for _, item := range items {
		if err := s.stock.Release(ctx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("release stock for %s: %w", item.ProductID, err)
		}
	}

	return nil
}
