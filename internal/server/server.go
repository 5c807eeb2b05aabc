package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
	"github.com/alanyoungcy/merchantdesk/internal/server/handler"
	"github.com/alanyoungcy/merchantdesk/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port           int
	CORSOrigins    []string
	APIKey         string // if empty, authentication is disabled
	RequestTimeout time.Duration
	RateLimit      int // requests per client per RateWindow; 0 disables
	RateWindow     time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health       *handler.HealthHandler
	Dashboard    *handler.DashboardHandler
	Sellers      *handler.SellerHandler
	Merchants    *handler.MerchantHandler
	Transactions *handler.TransactionHandler
	Reports      *handler.ReportHandler // nil when object storage is not configured
}

// Server is the HTTP API of the merchant dashboard.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// limiter may be nil, in which case no per-client rate limit applies.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	registerRoutes(mux, handlers)

	// Outermost first: CORS, logging, auth, rate limit, timeout.
	var h http.Handler = mux
	h = middleware.Timeout(cfg.RequestTimeout)(h)
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(h)
	}
	h = middleware.Auth(cfg.APIKey, "/api/health")(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	writeTimeout := 30 * time.Second
	if cfg.RequestTimeout+5*time.Second > writeTimeout {
		writeTimeout = cfg.RequestTimeout + 5*time.Second
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{httpServer: srv, logger: logger}
}

func registerRoutes(mux *http.ServeMux, handlers Handlers) {
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/dashboard/overview", handlers.Dashboard.Overview)
	mux.HandleFunc("GET /api/dashboard/top-sellers", handlers.Dashboard.TopSellers)

	mux.HandleFunc("GET /api/sellers", handlers.Sellers.ListSellers)
	mux.HandleFunc("GET /api/sellers/{id}", handlers.Sellers.GetSeller)

	mux.HandleFunc("GET /api/merchants", handlers.Merchants.ListMerchants)
	mux.HandleFunc("GET /api/merchants/{id}", handlers.Merchants.GetMerchant)

	mux.HandleFunc("GET /api/transactions/{id}", handlers.Transactions.GetTransaction)

	if handlers.Reports != nil {
		mux.HandleFunc("GET /api/reports", handlers.Reports.ListReports)
		mux.HandleFunc("GET /api/reports/history", handlers.Reports.History)
		mux.HandleFunc("GET /api/reports/download", handlers.Reports.Download)
		mux.HandleFunc("POST /api/reports/top-sellers", handlers.Reports.ExportTopSellers)
		mux.HandleFunc("POST /api/reports/transactions", handlers.Reports.ExportTransactions)
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
