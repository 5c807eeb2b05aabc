package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

// MerchantService reads merchants and their activity.
type MerchantService interface {
	ListMerchants(ctx context.Context) ([]domain.Merchant, error)
	MerchantDetail(ctx context.Context, merchantID string) (domain.MerchantDetail, error)
}

// MerchantHandler serves merchant endpoints.
type MerchantHandler struct {
	svc    MerchantService
	logger *slog.Logger
}

// NewMerchantHandler creates a MerchantHandler.
func NewMerchantHandler(svc MerchantService, logger *slog.Logger) *MerchantHandler {
	return &MerchantHandler{svc: svc, logger: logHandler(logger, "merchants")}
}

// ListMerchants returns every directory merchant.
// GET /api/merchants
func (h *MerchantHandler) ListMerchants(w http.ResponseWriter, r *http.Request) {
	merchants, err := h.svc.ListMerchants(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"merchants": merchants,
		"count":     len(merchants),
	})
}

// GetMerchant returns one merchant with its sellers, transactions and stats.
// GET /api/merchants/{id}
func (h *MerchantHandler) GetMerchant(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "merchant id is required")
		return
	}

	detail, err := h.svc.MerchantDetail(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
