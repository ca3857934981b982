package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gwangju-cafe/cafe-backend/internal/domain"
)

var ErrEmptyCart = errors.New("cart is empty")

// Carts is the slice of the cart repository checkout needs.
type Carts interface {
	ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error)
	DeleteAll(ctx context.Context, userID string) error
}

// Stock consumes reservations when a cart turns into an order.
type Stock interface {
	Commit(ctx context.Context, productID string, quantity int) error
}

// Orders persists the checkout snapshot.
type Orders interface {
	Create(ctx context.Context, order *domain.Order) error
}

// Publisher emits order events. A nil publisher disables publishing,
// matching how the API runs without a broker configured.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Quote is the checkout summary: the cart lines plus, when the bonus
// rule fires, one zero-price free drink line. The free line shows up
// in Items and on the order snapshot but never in ItemsTotal.
type Quote struct {
	Items       []domain.OrderItem `json:"items"`
	ItemsTotal  int64              `json:"items_total"`
	ShippingFee int64              `json:"shipping_fee"`
	FinalTotal  int64              `json:"final_total"`
}

type Service struct {
	carts     Carts
	stock     Stock
	orders    Orders
	publisher Publisher
	logger    *slog.Logger
}

func NewService(carts Carts, stock Stock, orders Orders, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		carts:     carts,
		stock:     stock,
		orders:    orders,
		publisher: publisher,
		logger:    logger,
	}
}

// Preview computes the checkout summary without touching anything.
// The bonus rule is re-evaluated on every call; it is a display-time
// rule, never stored in the cart.
func (s *Service) Preview(ctx context.Context, userID string) (*Quote, error) {
	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	return buildQuote(items), nil
}

// PlaceOrder snapshots the cart into a Pending order, consumes the
// stock reservations, and empties the cart. The three writes are
// sequential and not atomic; a failure mid-way leaves earlier steps in
// place and surfaces the error to the caller.
func (s *Service) PlaceOrder(ctx context.Context, user *domain.User) (*domain.Order, error) {
	items, err := s.carts.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	quote := buildQuote(items)
	now := time.Now().UTC()

	order := &domain.Order{
		UserID:      user.ID,
		Items:       quote.Items,
		Address:     user.Address.Deliverable(),
		ItemsTotal:  quote.ItemsTotal,
		ShippingFee: quote.ShippingFee,
		FinalTotal:  quote.FinalTotal,
		Status:      domain.OrderStatusPending,
		PlacedAt:    now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for _, item := range items {
		if err := s.stock.Commit(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("commit reservation for %s: %w", item.ProductID, err)
		}
	}

	if err := s.carts.DeleteAll(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if s.publisher != nil {
		event := domain.OrderPlacedEvent{
			OrderID:    order.ID,
			UserID:     user.ID,
			Email:      user.Email,
			Items:      order.Items,
			FinalTotal: order.FinalTotal,
			Timestamp:  now,
		}
		if err := s.publisher.Publish(ctx, order.ID, event); err != nil {
			s.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}

	return order, nil
}

func buildQuote(items []domain.CartItem) *Quote {
	quote := &Quote{Items: make([]domain.OrderItem, 0, len(items)+1)}

	for _, item := range items {
		quote.Items = append(quote.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Size:      item.Size,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
		quote.ItemsTotal += item.Subtotal
	}

	if len(items) == 0 {
		return quote
	}

	if domain.CartQuantity(items) >= domain.BonusThreshold {
		quote.Items = append(quote.Items, domain.OrderItem{
			Name:     domain.BonusItemName,
			Size:     domain.BonusItemSize,
			Quantity: 1,
			Bonus:    true,
		})
	}

	quote.ShippingFee = domain.ShippingFee
	quote.FinalTotal = quote.ItemsTotal + quote.ShippingFee
	return quote
}
