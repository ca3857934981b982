//go:build integration

package test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gwangju-cafe/cafe-backend/internal/auth"
	"github.com/gwangju-cafe/cafe-backend/internal/cart"
	"github.com/gwangju-cafe/cafe-backend/internal/checkout"
	"github.com/gwangju-cafe/cafe-backend/internal/domain"
	"github.com/gwangju-cafe/cafe-backend/internal/inventory"
	"github.com/gwangju-cafe/cafe-backend/internal/messaging"
	"github.com/gwangju-cafe/cafe-backend/internal/orders"
	"github.com/gwangju-cafe/cafe-backend/internal/sales"
)

func TestOrderLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := pg.Open()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := auth.NewRepository(db)
	products := inventory.NewRepository(db)
	cartLines := cart.NewRepository(db)
	orderStore := orders.NewRepository(db)

	cartService := cart.NewService(cartLines, products, logger)
	checkoutService := checkout.NewService(cartLines, products, orderStore, nil, logger)

	customer := &domain.User{
		Email:    "dahyun@example.com",
		Username: "dahyun",
		Role:     domain.RoleUser,
		Address: domain.Address{
			FirstName:   "Dahyun",
			LastName:    "Kim",
			HouseNumber: "12",
			Street:      "Mabini St",
			Barangay:    "Poblacion",
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := users.Create(ctx, customer, "not-a-real-hash"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	product := &domain.Product{
		Name:      "Americano",
		Category:  "Coffee",
		Size:      "Tall",
		Price:     49,
		Available: 10,
		AddedAt:   time.Now().UTC(),
	}
	if err := products.Create(ctx, product); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	// Customer fills the cart, which reserves stock.
	if _, err := cartService.AddItem(ctx, customer.ID, product.ID, 3); err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}

	stocked, err := products.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("failed to fetch product: %v", err)
	}
	if stocked.Available != 7 || stocked.Reserved != 3 {
		t.Fatalf("expected 7 available / 3 reserved, got %d / %d", stocked.Available, stocked.Reserved)
	}

	// Checkout converts the cart into a pending order.
	order, err := checkoutService.PlaceOrder(ctx, customer)
	if err != nil {
		t.Fatalf("failed to place order: %v", err)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected status %s, got %s", domain.OrderStatusPending, order.Status)
	}
	if order.FinalTotal != 3*49+50 {
		t.Fatalf("expected final total %d, got %d", 3*49+50, order.FinalTotal)
	}

	stocked, err = products.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("failed to fetch product: %v", err)
	}
	if stocked.Available != 7 || stocked.Reserved != 0 {
		t.Fatalf("expected reservation committed, got %d available / %d reserved", stocked.Available, stocked.Reserved)
	}

	remaining, err := cartLines.ListByUser(ctx, customer.ID)
	if err != nil {
		t.Fatalf("failed to list cart: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected cart to be empty after checkout, got %d lines", len(remaining))
	}

	// Staff walk the order through the delivery pipeline.
	for _, status := range []domain.OrderStatus{
		domain.OrderStatusPreparing,
		domain.OrderStatusOutForDelivery,
		domain.OrderStatusCompleted,
	} {
		updated, err := orderStore.UpdateStatus(ctx, order.ID, status)
		if err != nil {
			t.Fatalf("failed to update status to %s: %v", status, err)
		}
		if updated.Status != status {
			t.Fatalf("expected status %s, got %s", status, updated.Status)
		}
	}

	active, err := orderStore.ListActive(ctx)
	if err != nil {
		t.Fatalf("failed to list active orders: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active orders after completion, got %d", len(active))
	}

	// Customer confirms delivery and leaves a rating.
	received, err := orderStore.MarkReceived(ctx, order.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("failed to mark received: %v", err)
	}
	if received.Status != domain.OrderStatusReceived || received.ReceivedAt == nil {
		t.Fatalf("expected received order with timestamp, got %+v", received)
	}

	rated, err := orderStore.SetRating(ctx, order.ID, 5)
	if err != nil {
		t.Fatalf("failed to set rating: %v", err)
	}
	if rated.Rating != 5 {
		t.Fatalf("expected rating 5, got %d", rated.Rating)
	}

	// The finished order shows up on the sales dashboard.
	completed, err := orderStore.ListCompleted(ctx)
	if err != nil {
		t.Fatalf("failed to list completed orders: %v", err)
	}
	catalog, err := products.ListAll(ctx)
	if err != nil {
		t.Fatalf("failed to list catalog: %v", err)
	}

	report := sales.BuildReport(completed, catalog)
	if report.Orders != 1 {
		t.Fatalf("expected 1 order in report, got %d", report.Orders)
	}
	if report.GrossRevenue != order.FinalTotal {
		t.Fatalf("expected gross revenue %d, got %d", order.FinalTotal, report.GrossRevenue)
	}
	if report.CategoryRevenue["Coffee"] != 147 {
		t.Fatalf("expected Coffee revenue 147, got %d", report.CategoryRevenue["Coffee"])
	}
}

func TestRetireSoldProduct(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := pg.Open()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := auth.NewRepository(db)
	products := inventory.NewRepository(db)
	cartLines := cart.NewRepository(db)
	orderStore := orders.NewRepository(db)

	cartService := cart.NewService(cartLines, products, logger)
	checkoutService := checkout.NewService(cartLines, products, orderStore, nil, logger)

	customer := &domain.User{
		Email:     "mina@example.com",
		Username:  "mina",
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	if err := users.Create(ctx, customer, "not-a-real-hash"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	product := &domain.Product{
		Name:      "Coffee Jelly",
		Category:  "Coffee",
		Size:      "Venti",
		Price:     79,
		Available: 10,
		AddedAt:   time.Now().UTC(),
	}
	if err := products.Create(ctx, product); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	if _, err := cartService.AddItem(ctx, customer.ID, product.ID, 2); err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}

	// A product sitting in a cart holds reservations and cannot go.
	if _, err := products.Delete(ctx, product.ID); err != inventory.ErrProductInCarts {
		t.Fatalf("expected ErrProductInCarts while carted, got %v", err)
	}

	order, err := checkoutService.PlaceOrder(ctx, customer)
	if err != nil {
		t.Fatalf("failed to place order: %v", err)
	}

	// Once only order history references it, retiring succeeds.
	deleted, err := products.Delete(ctx, product.ID)
	if err != nil {
		t.Fatalf("failed to delete sold product: %v", err)
	}
	if !deleted {
		t.Fatal("expected product to be deleted")
	}

	// The order snapshot survives with the product reference cleared.
	fetched, err := orderStore.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if len(fetched.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(fetched.Items))
	}
	if fetched.Items[0].ProductID != "" {
		t.Fatalf("expected cleared product reference, got %q", fetched.Items[0].ProductID)
	}
	if fetched.Items[0].Name != "Coffee Jelly" {
		t.Fatalf("expected snapshot name to survive, got %q", fetched.Items[0].Name)
	}

	// The dashboard files the retired product under Other.
	if _, err := orderStore.UpdateStatus(ctx, order.ID, domain.OrderStatusCompleted); err != nil {
		t.Fatalf("failed to complete order: %v", err)
	}
	completed, err := orderStore.ListCompleted(ctx)
	if err != nil {
		t.Fatalf("failed to list completed orders: %v", err)
	}
	catalog, err := products.ListAll(ctx)
	if err != nil {
		t.Fatalf("failed to list catalog: %v", err)
	}
	report := sales.BuildReport(completed, catalog)
	if report.CategoryRevenue["Other"] != 158 {
		t.Fatalf("expected Other revenue 158, got %d", report.CategoryRevenue["Other"])
	}
}

func TestConcurrentReservations(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := pg.Open()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	products := inventory.NewRepository(db)

	product := &domain.Product{
		Name:      "Croissant",
		Category:  "Pastries",
		Size:      "Regular",
		Price:     65,
		Available: 5,
		AddedAt:   time.Now().UTC(),
	}
	if err := products.Create(ctx, product); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	// Ten buyers race for five units. Exactly five reservations may
	// succeed.
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			results <- products.Reserve(ctx, product.ID, 1)
		}()
	}

	var succeeded, rejected int
	for i := 0; i < 10; i++ {
		switch err := <-results; err {
		case nil:
			succeeded++
		case inventory.ErrInsufficientStock:
			rejected++
		default:
			t.Fatalf("unexpected reserve error: %v", err)
		}
	}

	if succeeded != 5 || rejected != 5 {
		t.Fatalf("expected 5 successes and 5 rejections, got %d / %d", succeeded, rejected)
	}

	stocked, err := products.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("failed to fetch product: %v", err)
	}
	if stocked.Available != 0 || stocked.Reserved != 5 {
		t.Fatalf("expected 0 available / 5 reserved, got %d / %d", stocked.Available, stocked.Reserved)
	}
}

func TestOrderEventsRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers, cleanupKafka := SetupKafka(ctx, t)
	defer cleanupKafka()

	producer := messaging.NewProducer(brokers, messaging.TopicOrderPlaced)
	defer func() { _ = producer.Close() }()

	event := domain.OrderPlacedEvent{
		OrderID:    "order-events-1",
		UserID:     "u1",
		Email:      "dahyun@example.com",
		Items:      []domain.OrderItem{{Name: "Americano", Size: "Tall", UnitPrice: 49, Quantity: 2}},
		FinalTotal: 148,
		Timestamp:  time.Now().UTC(),
	}
	if err := producer.Publish(ctx, event.OrderID, event); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	consumer := messaging.NewConsumer(brokers, messaging.TopicOrderPlaced, "integration-test")
	defer func() { _ = consumer.Close() }()

	consumeCtx, stopConsuming := context.WithCancel(ctx)
	defer stopConsuming()

	got := make(chan domain.OrderPlacedEvent, 1)
	go func() {
		_ = consumer.Consume(consumeCtx, func(_ context.Context, payload []byte) error {
			var received domain.OrderPlacedEvent
			if err := json.Unmarshal(payload, &received); err != nil {
				return err
			}
			got <- received
			return nil
		})
	}()

	select {
	case received := <-got:
		if received.OrderID != event.OrderID {
			t.Fatalf("expected order id %s, got %s", event.OrderID, received.OrderID)
		}
		if received.FinalTotal != event.FinalTotal {
			t.Fatalf("expected final total %d, got %d", event.FinalTotal, received.FinalTotal)
		}
	case <-time.After(60 * time.Second):
		t.Fatal("timed out waiting for order event")
	}
}
