package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gwangju-cafe/cafe-backend/internal/auth"
	"github.com/gwangju-cafe/cafe-backend/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Users interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Store is the order persistence surface the handler needs.
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListActive(ctx context.Context) ([]CustomerOrder, error)
	ListCompleted(ctx context.Context) ([]CustomerOrder, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	MarkReceived(ctx context.Context, id string, receivedAt time.Time) (*domain.Order, error)
	SetRating(ctx context.Context, id string, rating int) (*domain.Order, error)
}

type Handler struct {
	repo      Store
	users     Users
	publisher Publisher
	logger    *slog.Logger
}

func NewHandler(repo Store, users Users, publisher Publisher, logger *slog.Logger) *Handler {
	return &Handler{
		repo:      repo,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	orders, err := h.repo.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if r.URL.Query().Get("active") == "true" {
		active := make([]domain.Order, 0, len(orders))
		for _, order := range orders {
			if order.Active() {
				active = append(active, order)
			}
		}
		orders = active
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	order, err := h.loadOwned(w, r, user)
	if err != nil || order == nil {
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

// HandleMarkReceived lets the owning customer confirm delivery. Only a
// Completed order can be confirmed.
func (h *Handler) HandleMarkReceived(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	order, err := h.loadOwned(w, r, user)
	if err != nil || order == nil {
		return
	}

	if order.Status != domain.OrderStatusCompleted {
		h.writeError(w, http.StatusConflict, "order is not ready to be received")
		return
	}

	updated, err := h.repo.MarkReceived(r.Context(), order.ID, time.Now().UTC())
	if err != nil {
		h.logger.Error("failed to mark order received", "error", err, "order_id", order.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if updated == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.publishStatus(r.Context(), updated, user.Email)

	h.logger.Info("order received", "order_id", updated.ID, "user_id", user.ID)
	h.writeJSON(w, http.StatusOK, updated)
}

type rateOrderRequest struct {
	Rating int `json:"rating"`
}

// HandleRate records a 1 to 5 star rating on a received order.
func (h *Handler) HandleRate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	var req rateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		h.writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	order, err := h.loadOwned(w, r, user)
	if err != nil || order == nil {
		return
	}

	if order.Status != domain.OrderStatusReceived {
		h.writeError(w, http.StatusConflict, "order has not been received yet")
		return
	}

	updated, err := h.repo.SetRating(r.Context(), order.ID, req.Rating)
	if err != nil {
		h.logger.Error("failed to rate order", "error", err, "order_id", order.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if updated == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("order rated", "order_id", updated.ID, "rating", req.Rating)
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list active orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleListCompleted(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.ListCompleted(r.Context())
	if err != nil {
		h.logger.Error("failed to list completed orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// HandleUpdateStatus moves an order forward through the workflow. Staff
// drive orders up to Completed; Received is reserved for the customer's
// own confirmation.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !req.Status.Valid() || req.Status == domain.OrderStatusReceived {
		h.writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if !domain.CanTransition(order.Status, req.Status) {
		h.writeError(w, http.StatusConflict, "order cannot move backwards")
		return
	}

	updated, err := h.repo.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.logger.Error("failed to update order status", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if updated == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	var email string
	if customer, err := h.users.GetByID(r.Context(), updated.UserID); err == nil && customer != nil {
		email = customer.Email
	}
	h.publishStatus(r.Context(), updated, email)

	h.logger.Info("order status updated", "order_id", updated.ID, "status", updated.Status)
	h.writeJSON(w, http.StatusOK, updated)
}

// loadOwned fetches the order in the path and checks the caller owns
// it. On failure it writes the response and returns nil.
func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request, user *domain.User) (*domain.Order, error) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return nil, nil
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, err
	}
	if order == nil || order.UserID != user.ID {
		h.writeError(w, http.StatusNotFound, "order not found")
		return nil, nil
	}

	return order, nil
}

func (h *Handler) publishStatus(ctx context.Context, order *domain.Order, email string) {
	if h.publisher == nil {
		return
	}

	event := domain.OrderStatusEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Email:     email,
		Status:    order.Status,
		Timestamp: time.Now().UTC(),
	}
	if err := h.publisher.Publish(ctx, order.ID, event); err != nil {
		h.logger.Error("failed to publish order status event", "error", err, "order_id", order.ID)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
