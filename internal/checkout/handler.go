package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/gwangju-cafe/cafe-backend/internal/auth"
)

var meter = otel.Meter("checkout")

type Handler struct {
	service      *Service
	logger       *slog.Logger
	ordersPlaced metric.Int64Counter
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	ordersPlaced, err := meter.Int64Counter("cafe.orders.placed",
		metric.WithDescription("Orders placed through checkout"))
	if err != nil {
		logger.Error("failed to create orders counter", "error", err)
	}

	return &Handler{
		service:      service,
		logger:       logger,
		ordersPlaced: ordersPlaced,
	}
}

// HandlePreview returns the checkout summary for the current cart.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	quote, err := h.service.Preview(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to build checkout preview", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, quote)
}

// HandlePlaceOrder turns the cart into an order and returns the
// receipt snapshot.
func (h *Handler) HandlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	order, err := h.service.PlaceOrder(r.Context(), user)
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			h.writeError(w, http.StatusBadRequest, "cart is empty")
			return
		}
		h.logger.Error("failed to place order", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.ordersPlaced != nil {
		h.ordersPlaced.Add(r.Context(), 1)
	}

	h.logger.Info("order placed", "order_id", order.ID, "user_id", user.ID, "final_total", order.FinalTotal)
	h.writeJSON(w, http.StatusCreated, order)
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
