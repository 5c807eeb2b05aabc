package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

// SellerService reads sellers and their activity.
type SellerService interface {
	ListSellers(ctx context.Context) ([]domain.Seller, error)
	SellerDetail(ctx context.Context, sellerID string) (domain.SellerDetail, error)
}

// SellerHandler serves seller endpoints.
type SellerHandler struct {
	svc    SellerService
	logger *slog.Logger
}

// NewSellerHandler creates a SellerHandler.
func NewSellerHandler(svc SellerService, logger *slog.Logger) *SellerHandler {
	return &SellerHandler{svc: svc, logger: logHandler(logger, "sellers")}
}

// ListSellers returns every directory seller.
// GET /api/sellers
func (h *SellerHandler) ListSellers(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.svc.ListSellers(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sellers": sellers,
		"count":   len(sellers),
	})
}

// GetSeller returns one seller with its merchant, transactions and stats.
// GET /api/sellers/{id}
func (h *SellerHandler) GetSeller(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "seller id is required")
		return
	}

	detail, err := h.svc.SellerDetail(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
