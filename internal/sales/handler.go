package sales

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gwangju-cafe/cafe-backend/internal/domain"
	"github.com/gwangju-cafe/cafe-backend/internal/orders"
)

type CompletedOrders interface {
	ListCompleted(ctx context.Context) ([]orders.CustomerOrder, error)
}

type Catalog interface {
	ListAll(ctx context.Context) ([]domain.Product, error)
}

type Handler struct {
	orders  CompletedOrders
	catalog Catalog
	logger  *slog.Logger
}

func NewHandler(completed CompletedOrders, catalog Catalog, logger *slog.Logger) *Handler {
	return &Handler{
		orders:  completed,
		catalog: catalog,
		logger:  logger,
	}
}

func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	completed, err := h.orders.ListCompleted(r.Context())
	if err != nil {
		h.logger.Error("failed to load completed orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	products, err := h.catalog.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to load catalog", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	report := BuildReport(completed, products)

	h.logger.Info("sales report built", "orders", report.Orders, "gross_revenue", report.GrossRevenue)
	h.writeJSON(w, http.StatusOK, report)
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
