package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

// DashboardService provides the headline figures.
type DashboardService interface {
	Overview(ctx context.Context) (domain.Overview, error)
}

// RankingService computes the top-sellers ranking. It may be served from a
// cache.
type RankingService interface {
	TopSellers(ctx context.Context, limit int) (domain.TopSellers, error)
}

// DashboardHandler serves the overview and ranking endpoints.
type DashboardHandler struct {
	svc      DashboardService
	ranking  RankingService
	validate *Validator
	logger   *slog.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(svc DashboardService, ranking RankingService, v *Validator, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		svc:      svc,
		ranking:  ranking,
		validate: v,
		logger:   logHandler(logger, "dashboard"),
	}
}

type topSellersQuery struct {
	Limit int `json:"limit" validate:"min=1,max=100"`
}

// Overview returns merchant and seller counts with transaction totals.
// GET /api/dashboard/overview
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.svc.Overview(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// TopSellers returns the most active sellers.
// GET /api/dashboard/top-sellers?limit=5
func (h *DashboardHandler) TopSellers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := topSellersQuery{Limit: limit}
	if err := h.validate.Validate(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ranking, err := h.ranking.TopSellers(r.Context(), q.Limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}
