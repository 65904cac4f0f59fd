package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/AkshathTaduri/booktownsolutions/pkg/httpclient"
	"github.com/AkshathTaduri/booktownsolutions/pkg/logger"
)

// StripeConfig holds connection settings for the Stripe-compatible API.
type StripeConfig struct {
	BaseURL    string
	APIKey     string
	SuccessURL string
	CancelURL  string
	Currency   string
}

// StripeGateway implements PaymentGateway against the Stripe checkout
// sessions API. Calls go through the shared retrying HTTP client wrapped in
// a circuit breaker.
type StripeGateway struct {
	cfg    StripeConfig
	client *httpclient.CircuitBreakerClient
	logger *slog.Logger
}

// NewStripeGateway creates a new Stripe-backed payment gateway.
func NewStripeGateway(cfg StripeConfig, client *httpclient.CircuitBreakerClient, logger *slog.Logger) *StripeGateway {
	return &StripeGateway{cfg: cfg, client: client, logger: logger}
}

// CreateCheckoutSession creates a hosted checkout session. Gateway failures
// come back as GatewayError; the caller must not have mutated any state
// before this call.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req *CreateSessionRequest) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", g.cfg.SuccessURL)
	form.Set("cancel_url", g.cfg.CancelURL)
	if req.SuccessURL != "" {
		form.Set("success_url", req.SuccessURL)
	}
	if req.CancelURL != "" {
		form.Set("cancel_url", req.CancelURL)
	}

	currency := req.Currency
	if currency == "" {
		currency = g.cfg.Currency
	}

	for i, item := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	httpReq, err := http.NewRequest(http.MethodPost,
		g.cfg.BaseURL+"/v1/checkout/sessions",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call checkout sessions API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read session response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		logger.FromContext(ctx).WarnContext(ctx, "checkout session creation rejected",
			slog.Int("status", resp.StatusCode),
			slog.String("message", msg),
		)
		return nil, fmt.Errorf("checkout sessions API status %d: %s", resp.StatusCode, msg)
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	if session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("session response missing id or url")
	}

	return &session, nil
}
