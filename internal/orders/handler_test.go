package orders

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwangju-cafe/cafe-backend/internal/auth"
	"github.com/gwangju-cafe/cafe-backend/internal/domain"
)

type fakeStore struct {
	orders map[string]*domain.Order
}

func newFakeStore(orders ...*domain.Order) *fakeStore {
	s := &fakeStore{orders: make(map[string]*domain.Order)}
	for _, order := range orders {
		s.orders[order.ID] = order
	}
	return s
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (s *fakeStore) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *fakeStore) ListActive(_ context.Context) ([]CustomerOrder, error) {
	var out []CustomerOrder
	for _, order := range s.orders {
		if order.Active() {
			out = append(out, CustomerOrder{Order: *order, Username: "dahyun"})
		}
	}
	return out, nil
}

func (s *fakeStore) ListCompleted(_ context.Context) ([]CustomerOrder, error) {
	var out []CustomerOrder
	for _, order := range s.orders {
		if !order.Active() {
			out = append(out, CustomerOrder{Order: *order, Username: "dahyun"})
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	order.Status = status
	copied := *order
	return &copied, nil
}

func (s *fakeStore) MarkReceived(_ context.Context, id string, receivedAt time.Time) (*domain.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	order.Status = domain.OrderStatusReceived
	order.ReceivedAt = &receivedAt
	copied := *order
	return &copied, nil
}

func (s *fakeStore) SetRating(_ context.Context, id string, rating int) (*domain.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	order.Rating = rating
	copied := *order
	return &copied, nil
}

type fakeUsers struct {
	users map[string]*domain.User
}

func (u *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return u.users[id], nil
}

type capturingPublisher struct {
	events []any
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event any) error {
	p.events = append(p.events, event)
	return nil
}

func testHandler(store *fakeStore, publisher Publisher) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := &fakeUsers{users: map[string]*domain.User{
		"u1": {ID: "u1", Email: "dahyun@example.com", Username: "dahyun"},
	}}
	return NewHandler(store, users, publisher, logger)
}

func authedRequest(method, target, body string, user *domain.User) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if user != nil {
		req = req.WithContext(auth.ContextWithUser(req.Context(), user))
	}
	return req
}

func order(id, userID string, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:     id,
		UserID: userID,
		Items:  []domain.OrderItem{{Name: "Americano", Size: "Tall", UnitPrice: 49, Quantity: 1}},
		Status: status,
	}
}

func TestHandleMarkReceived(t *testing.T) {
	owner := &domain.User{ID: "u1", Email: "dahyun@example.com"}

	t.Run("completed order becomes received", func(t *testing.T) {
		store := newFakeStore(order("o1", "u1", domain.OrderStatusCompleted))
		publisher := &capturingPublisher{}
		h := testHandler(store, publisher)

		req := authedRequest(http.MethodPost, "/api/orders/o1/received", "", owner)
		req.SetPathValue("id", "o1")
		rec := httptest.NewRecorder()
		h.HandleMarkReceived(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.OrderStatusReceived, store.orders["o1"].Status)
		assert.NotNil(t, store.orders["o1"].ReceivedAt)
		require.Len(t, publisher.events, 1)
	})

	t.Run("order still in the pipeline is rejected", func(t *testing.T) {
		store := newFakeStore(order("o1", "u1", domain.OrderStatusPreparing))
		h := testHandler(store, nil)

		req := authedRequest(http.MethodPost, "/api/orders/o1/received", "", owner)
		req.SetPathValue("id", "o1")
		rec := httptest.NewRecorder()
		h.HandleMarkReceived(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, domain.OrderStatusPreparing, store.orders["o1"].Status)
	})

	t.Run("someone else's order looks like it does not exist", func(t *testing.T) {
		store := newFakeStore(order("o1", "u2", domain.OrderStatusCompleted))
		h := testHandler(store, nil)

		req := authedRequest(http.MethodPost, "/api/orders/o1/received", "", owner)
		req.SetPathValue("id", "o1")
		rec := httptest.NewRecorder()
		h.HandleMarkReceived(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleRate(t *testing.T) {
	owner := &domain.User{ID: "u1", Email: "dahyun@example.com"}

	t.Run("received order takes a rating", func(t *testing.T) {
		store := newFakeStore(order("o1", "u1", domain.OrderStatusReceived))
		h := testHandler(store, nil)

		req := authedRequest(http.MethodPost, "/api/orders/o1/rating", `{"rating": 4}`, owner)
		req.SetPathValue("id", "o1")
		rec := httptest.NewRecorder()
		h.HandleRate(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 4, store.orders["o1"].Rating)
	})

	t.Run("rating before delivery is rejected", func(t *testing.T) {
		store := newFakeStore(order("o1", "u1", domain.OrderStatusCompleted))
		h := testHandler(store, nil)

		req := authedRequest(http.MethodPost, "/api/orders/o1/rating", `{"rating": 5}`, owner)
		req.SetPathValue("id", "o1")
		rec := httptest.NewRecorder()
		h.HandleRate(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("out of range ratings are rejected", func(t *testing.T) {
		store := newFakeStore(order("o1", "u1", domain.OrderStatusReceived))
		h := testHandler(store, nil)

		for _, body := range []string{`{"rating": 0}`, `{"rating": 6}`} {
			req := authedRequest(http.MethodPost, "/api/orders/o1/rating", body, owner)
			req.SetPathValue("id", "o1")
			rec := httptest.NewRecorder()
			h.HandleRate(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})
}

func TestHandleUpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		from       domain.OrderStatus
		body       string
		wantCode   int
		wantStatus domain.OrderStatus
	}{
		{"pending to preparing", domain.OrderStatusPending, `{"status": "Preparing"}`, http.StatusOK, domain.OrderStatusPreparing},
		{"skip ahead to completed", domain.OrderStatusPending, `{"status": "Completed"}`, http.StatusOK, domain.OrderStatusCompleted},
		{"backwards is refused", domain.OrderStatusOutForDelivery, `{"status": "Preparing"}`, http.StatusConflict, domain.OrderStatusOutForDelivery},
		{"same status is refused", domain.OrderStatusPreparing, `{"status": "Preparing"}`, http.StatusConflict, domain.OrderStatusPreparing},
		{"received is customer only", domain.OrderStatusCompleted, `{"status": "Received"}`, http.StatusBadRequest, domain.OrderStatusCompleted},
		{"unknown status", domain.OrderStatusPending, `{"status": "Lost"}`, http.StatusBadRequest, domain.OrderStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(order("o1", "u1", tt.from))
			publisher := &capturingPublisher{}
			h := testHandler(store, publisher)

			req := httptest.NewRequest(http.MethodPatch, "/api/admin/orders/o1/status", strings.NewReader(tt.body))
			req.SetPathValue("id", "o1")
			rec := httptest.NewRecorder()
			h.HandleUpdateStatus(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantStatus, store.orders["o1"].Status)

			if tt.wantCode == http.StatusOK {
				require.Len(t, publisher.events, 1)
				event, ok := publisher.events[0].(domain.OrderStatusEvent)
				require.True(t, ok)
				assert.Equal(t, tt.wantStatus, event.Status)
				assert.Equal(t, "dahyun@example.com", event.Email)
			} else {
				assert.Empty(t, publisher.events)
			}
		})
	}

	t.Run("missing order", func(t *testing.T) {
		h := testHandler(newFakeStore(), nil)

		req := httptest.NewRequest(http.MethodPatch, "/api/admin/orders/nope/status", strings.NewReader(`{"status": "Preparing"}`))
		req.SetPathValue("id", "nope")
		rec := httptest.NewRecorder()
		h.HandleUpdateStatus(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleListMine(t *testing.T) {
	owner := &domain.User{ID: "u1"}
	store := newFakeStore(
		order("o1", "u1", domain.OrderStatusPreparing),
		order("o2", "u1", domain.OrderStatusReceived),
		order("o3", "u2", domain.OrderStatusPending),
	)
	h := testHandler(store, nil)

	t.Run("all own orders", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/orders", "", owner)
		rec := httptest.NewRecorder()
		h.HandleListMine(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got []domain.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got, 2)
	})

	t.Run("active filter", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/orders?active=true", "", owner)
		rec := httptest.NewRecorder()
		h.HandleListMine(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got []domain.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "o1", got[0].ID)
	})
}
