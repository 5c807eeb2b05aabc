package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

// TransactionService resolves one transaction against the directory.
type TransactionService interface {
	TransactionDetail(ctx context.Context, txID string) (domain.TransactionDetail, error)
}

// TransactionHandler serves transaction endpoints.
type TransactionHandler struct {
	svc    TransactionService
	logger *slog.Logger
}

// NewTransactionHandler creates a TransactionHandler.
func NewTransactionHandler(svc TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{svc: svc, logger: logHandler(logger, "transactions")}
}

// GetTransaction returns a transaction with its merchant and seller lookups.
// A failed lookup is reported inside the body, not as an error status.
// GET /api/transactions/{id}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "transaction id is required")
		return
	}

	detail, err := h.svc.TransactionDetail(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
