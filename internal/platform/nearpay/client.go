// Package nearpay is the REST client for the payment transaction API.
package nearpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

const rateLimitKey = "nearpay:outbound"

// Config holds the connection settings for the payment API.
type Config struct {
	BaseURL string        // e.g. "https://api.nearpay.io"
	APIKey  string        // sent as a bearer token
	Timeout time.Duration // per request; 30s when zero

	// Outbound throttle shared by every process using the same limiter.
	// Disabled when RateLimit is zero or no limiter is supplied.
	RateLimit  int
	RateWindow time.Duration
}

// Client fetches transactions from the payment API. It satisfies
// domain.TransactionSource.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    domain.RateLimiter
	rateLimit  int
	rateWindow time.Duration
}

var _ domain.TransactionSource = (*Client)(nil)

// NewClient creates a new payment API client. limiter may be nil.
func NewClient(cfg Config, limiter domain.RateLimiter) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	window := cfg.RateWindow
	if window <= 0 {
		window = time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		rateLimit:  cfg.RateLimit,
		rateWindow: window,
	}
}

// FetchPage returns one page of the filtered transaction listing. Every
// failure wraps domain.ErrSourceUnavailable.
func (c *Client) FetchPage(ctx context.Context, filter domain.TransactionFilter, page, limit int) (domain.TransactionPage, error) {
	params := url.Values{}
	switch filter.Kind {
	case domain.FilterMerchant:
		params.Set("merchant_id", filter.Value)
	case domain.FilterTerminal:
		params.Set("terminal_id", filter.Value)
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.doGet(ctx, "/v1/transactions?"+params.Encode())
	if err != nil {
		return domain.TransactionPage{}, fmt.Errorf("nearpay: fetch %s page %d: %w", filter, page, unavailable(err))
	}

	var list APITransactionList
	if err := json.Unmarshal(body, &list); err != nil {
		return domain.TransactionPage{}, fmt.Errorf("nearpay: decode page %d: %w", page, unavailable(err))
	}

	txs := make([]domain.Transaction, 0, len(list.Transactions))
	for i := range list.Transactions {
		txs = append(txs, list.Transactions[i].ToDomainTransaction())
	}

	return domain.TransactionPage{
		Transactions: txs,
		Pages:        domain.PageInfo{Current: list.Pages.Current, Total: list.Pages.Total},
	}, nil
}

// FetchTransaction returns a single transaction. A 404 wraps
// domain.ErrNotFound; other failures wrap domain.ErrSourceUnavailable.
func (c *Client) FetchTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	path := "/v1/transactions/" + url.PathEscape(id)

	body, err := c.doGet(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Transaction{}, fmt.Errorf("nearpay: get transaction %s: %w", id, err)
		}
		return domain.Transaction{}, fmt.Errorf("nearpay: get transaction %s: %w", id, unavailable(err))
	}

	var apiTx APITransaction
	if err := json.Unmarshal(body, &apiTx); err != nil {
		return domain.Transaction{}, fmt.Errorf("nearpay: decode transaction: %w", unavailable(err))
	}

	tx := apiTx.ToDomainTransaction()
	if tx.ID == "" {
		tx.ID = id
	}
	return tx, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	if c.limiter != nil && c.rateLimit > 0 {
		if err := c.limiter.Wait(ctx, rateLimitKey, c.rateLimit, c.rateWindow); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

func unavailable(err error) error {
	if errors.Is(err, domain.ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
}
