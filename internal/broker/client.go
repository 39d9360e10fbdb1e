// Package broker is a typed JSON/HTTP client for the brokerage backend.
// It mirrors the backend's route surface, handles its loose response
// shapes (groups, symbol search, string-or-array messages), and keeps
// session tokens fresh. All calls take a context so the caller can cancel
// and supersede in-flight requests.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"orderdesk/internal/metrics"
	"orderdesk/internal/model"
)

// Config configures the broker client.
type Config struct {
	BaseURL string        // e.g. "http://localhost:8000"
	Timeout time.Duration // transport timeout, default 7s

	// Session credentials. Empty ClientCode disables login and sends
	// unauthenticated requests (local development backend).
	ClientCode string
	Password   string
	TOTPSecret string
}

var routes = map[string]string{
	"orders.get":      "/get_orders",
	"orders.place":    "/place_order",
	"orders.modify":   "/modify_order",
	"orders.cancel":   "/cancel_order",
	"clients.get":     "/get_clients",
	"groups.get":      "/groups",
	"symbols.search":  "/search_symbols",
	"ltp.get":         "/ltp",
	"positions.get":   "/get_positions",
	"positions.close": "/close_positions",
	"holdings.get":    "/get_holdings",
	"session.login":   "/login",
}

// Client talks to the brokerage backend over JSON/HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client

	cfg Config

	mu          sync.RWMutex
	accessToken string

	met *metrics.Metrics // may be nil

	// SessionExpiryHook, if set, is called when the backend rejects the
	// session token (401).
	SessionExpiryHook func()
}

// New creates a broker client. BaseURL must be non-empty.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("broker: BaseURL required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 7 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}, nil
}

// SetMetrics attaches request duration and error counters.
func (c *Client) SetMetrics(met *metrics.Metrics) { c.met = met }

func (c *Client) buildURL(route string) (string, error) {
	uri, ok := routes[route]
	if !ok {
		return "", fmt.Errorf("broker: unknown route %q", route)
	}
	return c.baseURL + uri, nil
}

// apiError is the backend's error body: {"message": "..."} with optional
// array form.
type apiError struct {
	Message model.Message `json:"message"`
	Status  int           `json:"-"`
}

func (e *apiError) Error() string {
	if len(e.Message) > 0 {
		return e.Message.String()
	}
	return fmt.Sprintf("broker: http %d", e.Status)
}

// do issues one request and decodes the JSON body into out (when non-nil).
// Non-2xx responses return an *apiError carrying the backend message
// verbatim so callers can surface it to the user.
func (c *Client) do(ctx context.Context, method, route string, query url.Values, body any, out any) error {
	reqURL, err := c.buildURL(route)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("broker: marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("broker: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.met != nil {
		c.met.BrokerRequestDur.WithLabelValues(route).Observe(time.Since(start).Seconds())
		if err != nil {
			c.met.BrokerErrors.WithLabelValues(route).Inc()
		}
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("broker: read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && c.SessionExpiryHook != nil {
		c.SessionExpiryHook()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.met != nil {
			c.met.BrokerErrors.WithLabelValues(route).Inc()
		}
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("broker: decode %s response: %w", route, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, route string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, route, query, nil, out)
}

func (c *Client) post(ctx context.Context, route string, body, out any) error {
	return c.do(ctx, http.MethodPost, route, nil, body, out)
}

// ── Orders ──

// GetOrders fetches the five-bucket order book. Buckets absent from the
// response come back empty, never as an error.
func (c *Client) GetOrders(ctx context.Context) (*model.OrderBook, error) {
	var book model.OrderBook
	if err := c.get(ctx, "orders.get", nil, &book); err != nil {
		return nil, err
	}
	book.Normalize()
	return &book, nil
}

// PlaceOrder submits one normalized order payload.
func (c *Client) PlaceOrder(ctx context.Context, payload model.PlaceOrderPayload) (*model.PlaceOrderAck, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "orders.place", payload, &raw); err != nil {
		return nil, err
	}
	ack := &model.PlaceOrderAck{Raw: raw}
	_ = json.Unmarshal(raw, ack)
	return ack, nil
}

// CancelOrders submits one batched cancel for the given pending orders.
func (c *Client) CancelOrders(ctx context.Context, orders []model.CancelOrderItem) (model.Message, error) {
	body := map[string][]model.CancelOrderItem{"orders": orders}
	var resp struct {
		Message model.Message `json:"message"`
	}
	if err := c.post(ctx, "orders.cancel", body, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// ModifyOrder submits one sparse modify patch.
func (c *Client) ModifyOrder(ctx context.Context, patch model.ModifyPatch) (model.Message, error) {
	body := map[string]model.ModifyPatch{"order": patch}
	var resp struct {
		Message model.Message `json:"message"`
	}
	if err := c.post(ctx, "orders.modify", body, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// ── Reference data ──

// GetClients lists targetable client accounts.
func (c *Client) GetClients(ctx context.Context) ([]model.Client, error) {
	var resp struct {
		Clients []model.Client `json:"clients"`
	}
	if err := c.get(ctx, "clients.get", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Clients, nil
}

// GetGroups lists client groups, normalized from the backend's loose
// shape: {name|group_name|id, members|clients, multiplier}.
func (c *Client) GetGroups(ctx context.Context) ([]model.Group, error) {
	var resp struct {
		Groups []rawGroup `json:"groups"`
	}
	if err := c.get(ctx, "groups.get", nil, &resp); err != nil {
		return nil, err
	}
	groups := make([]model.Group, 0, len(resp.Groups))
	for _, g := range resp.Groups {
		groups = append(groups, g.normalize())
	}
	return groups, nil
}

// SearchSymbols resolves a free-text query on the given exchange into
// {value, label} pairs.
func (c *Client) SearchSymbols(ctx context.Context, query, exchange string) ([]model.SymbolRef, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("exchange", exchange)
	var resp struct {
		Results []rawSymbolResult `json:"results"`
	}
	if err := c.get(ctx, "symbols.search", q, &resp); err != nil {
		return nil, err
	}
	refs := make([]model.SymbolRef, 0, len(resp.Results))
	for _, r := range resp.Results {
		refs = append(refs, r.normalize())
	}
	return refs, nil
}

// LTP fetches the last traded price for a symbol. Callers treat failure
// as best-effort and fall back to a placeholder.
func (c *Client) LTP(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	var resp struct {
		LTP float64 `json:"ltp"`
	}
	if err := c.get(ctx, "ltp.get", q, &resp); err != nil {
		return 0, err
	}
	return resp.LTP, nil
}

// ── Positions & holdings ──

// GetPositions fetches open positions per client.
func (c *Client) GetPositions(ctx context.Context) ([]model.Position, error) {
	var resp struct {
		Positions []model.Position `json:"positions"`
	}
	if err := c.get(ctx, "positions.get", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Positions, nil
}

// ClosePositions requests market exit of the given positions.
func (c *Client) ClosePositions(ctx context.Context, positions []model.Position) (model.Message, error) {
	body := map[string][]model.Position{"positions": positions}
	var resp struct {
		Message model.Message `json:"message"`
	}
	if err := c.post(ctx, "positions.close", body, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// GetHoldings fetches demat holdings per client.
func (c *Client) GetHoldings(ctx context.Context) ([]model.Holding, error) {
	var resp struct {
		Holdings []model.Holding `json:"holdings"`
	}
	if err := c.get(ctx, "holdings.get", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Holdings, nil
}
