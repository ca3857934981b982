package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gwangju-cafe/cafe-backend/internal/auth"
	"github.com/gwangju-cafe/cafe-backend/internal/domain"
	"github.com/gwangju-cafe/cafe-backend/internal/inventory"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type cartResponse struct {
	Items       []domain.CartItem `json:"items"`
	ItemsTotal  int64             `json:"items_total"`
	ShippingFee int64             `json:"shipping_fee"`
	FinalTotal  int64             `json:"final_total"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	items, err := h.service.Items(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, buildCartResponse(items))
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	item, err := h.service.AddItem(r.Context(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, ErrProductNotFound):
			h.writeError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, inventory.ErrInsufficientStock):
			h.writeError(w, http.StatusConflict, "insufficient stock")
		default:
			h.logger.Error("failed to add cart item", "error", err, "user_id", user.ID, "product_id", req.ProductID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.Info("cart item added", "user_id", user.ID, "product_id", item.ProductID, "quantity", item.Quantity)
	h.writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	itemID := r.PathValue("id")
	if itemID == "" {
		h.writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	if err := h.service.RemoveItem(r.Context(), user.ID, itemID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			h.writeError(w, http.StatusNotFound, "cart item not found")
			return
		}
		h.logger.Error("failed to remove cart item", "error", err, "user_id", user.ID, "item_id", itemID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart item removed", "user_id", user.ID, "item_id", itemID)

	items, err := h.service.Items(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to reload cart", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, buildCartResponse(items))
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := h.service.Clear(r.Context(), user.ID); err != nil {
		h.logger.Error("failed to clear cart", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart cleared", "user_id", user.ID)
	h.writeJSON(w, http.StatusOK, buildCartResponse(nil))
}

func buildCartResponse(items []domain.CartItem) cartResponse {
	resp := cartResponse{
		Items:      items,
		ItemsTotal: domain.CartTotal(items),
	}
	if resp.Items == nil {
		resp.Items = []domain.CartItem{}
	}
	if len(items) > 0 {
		resp.ShippingFee = domain.ShippingFee
	}
	resp.FinalTotal = resp.ItemsTotal + resp.ShippingFee
	return resp
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
