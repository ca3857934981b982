package inventory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gwangju-cafe/cafe-backend/internal/domain"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// HandleList serves the catalog for both the customer menu and the
// admin inventory table.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

type productRequest struct {
	Name      string     `json:"name"`
	Category  string     `json:"category"`
	Size      string     `json:"size"`
	Price     int64      `json:"price"`
	Available int        `json:"available"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Size == "" {
		h.writeError(w, http.StatusBadRequest, "name and size are required")
		return
	}
	if req.Price < 0 || req.Available < 0 {
		h.writeError(w, http.StatusBadRequest, "price and stock must not be negative")
		return
	}
	if req.Category == "" {
		req.Category = "Uncategorized"
	}

	product := &domain.Product{
		Name:      req.Name,
		Category:  req.Category,
		Size:      req.Size,
		Price:     req.Price,
		Available: req.Available,
		AddedAt:   time.Now().UTC(),
		ExpiresAt: req.ExpiresAt,
	}

	if err := h.repo.Create(r.Context(), product); err != nil {
		h.logger.Error("failed to create product", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "name", product.Name, "size", product.Size)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Price < 0 || req.Available < 0 {
		h.writeError(w, http.StatusBadRequest, "price and stock must not be negative")
		return
	}

	product, err := h.repo.Update(r.Context(), &domain.Product{
		ID:        id,
		Name:      req.Name,
		Category:  req.Category,
		Size:      req.Size,
		Price:     req.Price,
		Available: req.Available,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		h.logger.Error("failed to update product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("product updated", "product_id", id)
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	deleted, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrProductInCarts) {
			h.writeError(w, http.StatusConflict, "product is held in carts")
			return
		}
		h.logger.Error("failed to delete product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("product deleted", "product_id", id)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleSeed fills the catalog with the generated menu, the admin
// "generate full inventory" tool.
func (h *Handler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	catalog := GenerateCatalog(time.Now().UTC(), nil)

	inserted, err := h.repo.Seed(r.Context(), catalog)
	if err != nil {
		h.logger.Error("failed to seed catalog", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("catalog seeded", "generated", len(catalog), "inserted", inserted)
	h.writeJSON(w, http.StatusOK, map[string]int{"generated": len(catalog), "inserted": inserted})
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
