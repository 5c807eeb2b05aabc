package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

// ReportService exports snapshots and lists what has been exported.
type ReportService interface {
	ExportTopSellers(ctx context.Context, limit int) (domain.ExportResult, error)
	ExportTransactions(ctx context.Context, filter domain.TransactionFilter) (domain.ExportResult, error)
	ListReports(ctx context.Context, kind domain.ReportKind) ([]domain.BlobInfo, error)
	History(ctx context.Context, limit int) ([]domain.AuditEntry, error)
	OpenReport(ctx context.Context, path string) (io.ReadCloser, error)
}

// ReportHandler serves report export endpoints.
type ReportHandler struct {
	svc      ReportService
	validate *Validator
	logger   *slog.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(svc ReportService, v *Validator, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, validate: v, logger: logHandler(logger, "reports")}
}

type topSellersReportRequest struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=100"`
}

type transactionsReportRequest struct {
	MerchantID string `json:"merchant_id" validate:"omitempty,max=128"`
	TerminalID string `json:"terminal_id" validate:"omitempty,max=128,excluded_with=MerchantID"`
}

func (req transactionsReportRequest) filter() domain.TransactionFilter {
	switch {
	case req.MerchantID != "":
		return domain.ByMerchant(req.MerchantID)
	case req.TerminalID != "":
		return domain.ByTerminal(req.TerminalID)
	default:
		return domain.AllTransactions()
	}
}

type listReportsQuery struct {
	Kind string `json:"kind" validate:"required,oneof=top-sellers transactions"`
}

type downloadQuery struct {
	Path string `json:"path" validate:"required,max=512"`
}

type historyQuery struct {
	Limit int `json:"limit" validate:"min=1,max=500"`
}

// ExportTopSellers writes a ranking snapshot to object storage.
// POST /api/reports/top-sellers
func (h *ReportHandler) ExportTopSellers(w http.ResponseWriter, r *http.Request) {
	var req topSellersReportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.ExportTopSellers(r.Context(), req.Limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ExportTransactions writes every matching transaction as JSON lines.
// POST /api/reports/transactions
func (h *ReportHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	var req transactionsReportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.ExportTransactions(r.Context(), req.filter())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListReports lists stored exports of one kind.
// GET /api/reports?kind=top-sellers
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	q := listReportsQuery{Kind: r.URL.Query().Get("kind")}
	if err := h.validate.Validate(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	infos, err := h.svc.ListReports(r.Context(), domain.ReportKind(q.Kind))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reports": infos,
		"count":   len(infos),
	})
}

// History lists recent export audit entries.
// GET /api/reports/history?limit=50
func (h *ReportHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := historyQuery{Limit: limit}
	if err := h.validate.Validate(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.svc.History(r.Context(), q.Limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// Download streams one stored export.
// GET /api/reports/download?path=reports/top-sellers/...
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	q := downloadQuery{Path: r.URL.Query().Get("path")}
	if err := h.validate.Validate(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body, err := h.svc.OpenReport(r.Context(), q.Path)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	defer body.Close()

	contentType := "application/json"
	if path.Ext(q.Path) == ".jsonl" {
		contentType = "application/x-ndjson"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(q.Path)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "report download interrupted",
			slog.String("path", q.Path),
			slog.String("error", err.Error()),
		)
	}
}
