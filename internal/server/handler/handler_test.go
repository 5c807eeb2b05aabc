package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockRecon struct {
	mock.Mock
}

func (m *mockRecon) Overview(ctx context.Context) (domain.Overview, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Overview), args.Error(1)
}

func (m *mockRecon) TopSellers(ctx context.Context, limit int) (domain.TopSellers, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).(domain.TopSellers), args.Error(1)
}

func (m *mockRecon) ListSellers(ctx context.Context) ([]domain.Seller, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Seller), args.Error(1)
}

func (m *mockRecon) SellerDetail(ctx context.Context, id string) (domain.SellerDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.SellerDetail), args.Error(1)
}

func (m *mockRecon) ListMerchants(ctx context.Context) ([]domain.Merchant, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Merchant), args.Error(1)
}

func (m *mockRecon) MerchantDetail(ctx context.Context, id string) (domain.MerchantDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.MerchantDetail), args.Error(1)
}

func (m *mockRecon) TransactionDetail(ctx context.Context, id string) (domain.TransactionDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.TransactionDetail), args.Error(1)
}

type mockReports struct {
	mock.Mock
}

func (m *mockReports) ExportTopSellers(ctx context.Context, limit int) (domain.ExportResult, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).(domain.ExportResult), args.Error(1)
}

func (m *mockReports) ExportTransactions(ctx context.Context, f domain.TransactionFilter) (domain.ExportResult, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(domain.ExportResult), args.Error(1)
}

func (m *mockReports) ListReports(ctx context.Context, kind domain.ReportKind) ([]domain.BlobInfo, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).([]domain.BlobInfo), args.Error(1)
}

func (m *mockReports) History(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

func (m *mockReports) OpenReport(ctx context.Context, path string) (io.ReadCloser, error) {
	args := m.Called(ctx, path)
	body, _ := args.Get(0).(io.ReadCloser)
	return body, args.Error(1)
}

// serve routes a single request through a mux so path values resolve.
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDashboard_TopSellers(t *testing.T) {
	recon := new(mockRecon)
	h := NewDashboardHandler(recon, recon, NewValidator(), discardLogger())

	recon.On("TopSellers", mock.Anything, 5).Return(domain.TopSellers{
		Sellers: []domain.TopSellerEntry{
			{ID: "s1", Name: "Alice", TransactionCount: 3, PercentageActivity: 60},
		},
		TotalTransactions: 5,
	}, nil).Once()

	rec := serve("GET /api/dashboard/top-sellers", h.TopSellers,
		httptest.NewRequest(http.MethodGet, "/api/dashboard/top-sellers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 5, body["total_transactions"])
	sellers := body["sellers"].([]any)
	require.Len(t, sellers, 1)
	assert.EqualValues(t, 60, sellers[0].(map[string]any)["percentage_activity"])
	recon.AssertExpectations(t)
}

func TestDashboard_TopSellersRejectsBadLimit(t *testing.T) {
	recon := new(mockRecon)
	h := NewDashboardHandler(recon, recon, NewValidator(), discardLogger())

	for _, q := range []string{"limit=abc", "limit=0", "limit=101"} {
		t.Run(q, func(t *testing.T) {
			rec := serve("GET /api/dashboard/top-sellers", h.TopSellers,
				httptest.NewRequest(http.MethodGet, "/api/dashboard/top-sellers?"+q, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	recon.AssertNotCalled(t, "TopSellers", mock.Anything, mock.Anything)
}

func TestDashboard_OverviewErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("wrap: %w", domain.ErrNotFound), http.StatusNotFound},
		{"source", fmt.Errorf("wrap: %w", domain.ErrSourceUnavailable), http.StatusBadGateway},
		{"lock", domain.ErrLockHeld, http.StatusConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recon := new(mockRecon)
			recon.On("Overview", mock.Anything).Return(domain.Overview{}, tt.err)
			h := NewDashboardHandler(recon, recon, NewValidator(), discardLogger())

			rec := serve("GET /api/dashboard/overview", h.Overview,
				httptest.NewRequest(http.MethodGet, "/api/dashboard/overview", nil))
			assert.Equal(t, tt.want, rec.Code)
			assert.NotContains(t, rec.Body.String(), "boom")
		})
	}
}

func TestSellers_GetSeller(t *testing.T) {
	recon := new(mockRecon)
	h := NewSellerHandler(recon, discardLogger())

	recon.On("SellerDetail", mock.Anything, "s1").Return(domain.SellerDetail{
		Seller:      domain.Seller{ID: "s1", Name: "Alice"},
		Degraded:    true,
		SourceError: "transaction source unavailable",
	}, nil)
	recon.On("SellerDetail", mock.Anything, "missing").Return(domain.SellerDetail{}, domain.ErrNotFound)

	rec := serve("GET /api/sellers/{id}", h.GetSeller,
		httptest.NewRequest(http.MethodGet, "/api/sellers/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["degraded"])
	assert.Equal(t, "Alice", body["seller"].(map[string]any)["name"])

	rec = serve("GET /api/sellers/{id}", h.GetSeller,
		httptest.NewRequest(http.MethodGet, "/api/sellers/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSellers_ListSellers(t *testing.T) {
	recon := new(mockRecon)
	h := NewSellerHandler(recon, discardLogger())
	recon.On("ListSellers", mock.Anything).Return([]domain.Seller{{ID: "s1"}, {ID: "s2"}}, nil)

	rec := serve("GET /api/sellers", h.ListSellers,
		httptest.NewRequest(http.MethodGet, "/api/sellers", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])
}

func TestMerchants(t *testing.T) {
	recon := new(mockRecon)
	h := NewMerchantHandler(recon, discardLogger())
	recon.On("ListMerchants", mock.Anything).Return([]domain.Merchant{{ID: "m1"}}, nil)
	recon.On("MerchantDetail", mock.Anything, "m1").Return(domain.MerchantDetail{
		Merchant: domain.Merchant{ID: "m1"},
	}, nil)

	rec := serve("GET /api/merchants", h.ListMerchants,
		httptest.NewRequest(http.MethodGet, "/api/merchants", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = serve("GET /api/merchants/{id}", h.GetMerchant,
		httptest.NewRequest(http.MethodGet, "/api/merchants/m1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	recon.AssertExpectations(t)
}

func TestTransactions_GetTransaction(t *testing.T) {
	recon := new(mockRecon)
	h := NewTransactionHandler(recon, discardLogger())
	recon.On("TransactionDetail", mock.Anything, "t1").Return(domain.TransactionDetail{
		Transaction: domain.Transaction{ID: "t1"},
		Merchant:    domain.Lookup[domain.Merchant]{Error: "merchant id unavailable"},
	}, nil)
	recon.On("TransactionDetail", mock.Anything, "t2").
		Return(domain.TransactionDetail{}, fmt.Errorf("fetch: %w", domain.ErrSourceUnavailable))

	rec := serve("GET /api/transactions/{id}", h.GetTransaction,
		httptest.NewRequest(http.MethodGet, "/api/transactions/t1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	lookup := decode(t, rec)["merchant_lookup"].(map[string]any)
	assert.Equal(t, "merchant id unavailable", lookup["error"])

	rec = serve("GET /api/transactions/{id}", h.GetTransaction,
		httptest.NewRequest(http.MethodGet, "/api/transactions/t2", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestReports_ExportTransactions(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		filter domain.TransactionFilter
		want   int
	}{
		{"empty body scans everything", "", domain.AllTransactions(), http.StatusCreated},
		{"merchant", `{"merchant_id":"m1"}`, domain.ByMerchant("m1"), http.StatusCreated},
		{"terminal", `{"terminal_id":"t9"}`, domain.ByTerminal("t9"), http.StatusCreated},
		{"both filters", `{"merchant_id":"m1","terminal_id":"t9"}`, domain.TransactionFilter{}, http.StatusBadRequest},
		{"unknown field", `{"seller":"x"}`, domain.TransactionFilter{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports := new(mockReports)
			if tt.want == http.StatusCreated {
				reports.On("ExportTransactions", mock.Anything, tt.filter).Return(domain.ExportResult{
					Kind: domain.ReportTransactions, Path: "reports/transactions/x.jsonl", Records: 2,
				}, nil).Once()
			}
			h := NewReportHandler(reports, NewValidator(), discardLogger())

			rec := serve("POST /api/reports/transactions", h.ExportTransactions,
				httptest.NewRequest(http.MethodPost, "/api/reports/transactions", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
			reports.AssertExpectations(t)
		})
	}
}

func TestReports_ExportTopSellersLockHeld(t *testing.T) {
	reports := new(mockReports)
	reports.On("ExportTopSellers", mock.Anything, 0).
		Return(domain.ExportResult{}, fmt.Errorf("acquire: %w", domain.ErrLockHeld))
	h := NewReportHandler(reports, NewValidator(), discardLogger())

	rec := serve("POST /api/reports/top-sellers", h.ExportTopSellers,
		httptest.NewRequest(http.MethodPost, "/api/reports/top-sellers", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReports_ListReportsValidatesKind(t *testing.T) {
	reports := new(mockReports)
	reports.On("ListReports", mock.Anything, domain.ReportTopSellers).
		Return([]domain.BlobInfo{{Path: "reports/top-sellers/a.json"}}, nil)
	h := NewReportHandler(reports, NewValidator(), discardLogger())

	rec := serve("GET /api/reports", h.ListReports,
		httptest.NewRequest(http.MethodGet, "/api/reports?kind=top-sellers", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = serve("GET /api/reports", h.ListReports,
		httptest.NewRequest(http.MethodGet, "/api/reports?kind=secrets", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "kind")
}

func TestReports_History(t *testing.T) {
	reports := new(mockReports)
	reports.On("History", mock.Anything, 10).Return([]domain.AuditEntry{{ID: 1, Event: "report.top-sellers"}}, nil)
	h := NewReportHandler(reports, NewValidator(), discardLogger())

	rec := serve("GET /api/reports/history", h.History,
		httptest.NewRequest(http.MethodGet, "/api/reports/history?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])
}

func TestReports_Download(t *testing.T) {
	reports := new(mockReports)
	reports.On("OpenReport", mock.Anything, "reports/transactions/2024/03/01/all-x.jsonl").
		Return(io.NopCloser(strings.NewReader("{\"id\":\"a\"}\n")), nil)
	reports.On("OpenReport", mock.Anything, "reports/gone.json").
		Return(nil, fmt.Errorf("open: %w", domain.ErrNotFound))
	h := NewReportHandler(reports, NewValidator(), discardLogger())

	rec := serve("GET /api/reports/download", h.Download,
		httptest.NewRequest(http.MethodGet, "/api/reports/download?path=reports/transactions/2024/03/01/all-x.jsonl", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "all-x.jsonl")
	assert.Equal(t, "{\"id\":\"a\"}\n", rec.Body.String())

	rec = serve("GET /api/reports/download", h.Download,
		httptest.NewRequest(http.MethodGet, "/api/reports/download?path=reports/gone.json", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve("GET /api/reports/download", h.Download,
		httptest.NewRequest(http.MethodGet, "/api/reports/download", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{
		"postgres": pingFunc(func(context.Context) error { return nil }),
	}, discardLogger())
	rec := serve("GET /api/health", h.HealthCheck, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h = NewHealthHandler(map[string]Pinger{
		"redis": pingFunc(func(context.Context) error { return errors.New("down") }),
	}, discardLogger())
	rec = serve("GET /api/health", h.HealthCheck, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decode(t, rec)["checks"].(map[string]any)["redis"])
}
