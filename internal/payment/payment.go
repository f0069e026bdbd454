// Package payment is the client for the external payment-intent provider.
//
// The provider is a collaborator, not part of this system: we ask it for a
// payment intent, hand the client secret to the frontend, and later record
// the client-reported transaction id in the transaction log. There is no
// capture reconciliation here.
package payment

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
	"time"

	"github.com/sakif/foodbridge/internal/apperror"
)

// Client talks to the provider's payment-intent endpoint.
//
// Form-encoded request, JSON response, bearer-style secret key — the shape
// of Stripe's /v1/payment_intents, but nothing here is SDK-specific: a stub
// server in tests stands in for the provider.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

func New(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

// intentResponse is the slice of the provider's response we care about.
type intentResponse struct {
	ClientSecret string `json:"client_secret"`
}

// CreateIntent asks the provider for a payment intent over the given amount
// (in the smallest currency unit) and returns its client secret.
//
// Provider failures are surfaced as a GENERIC internal error: the provider's
// own message goes to the log, never to the API client, so upstream
// internals don't leak through our error bodies.
func (c *Client) CreateIntent(ctx context.Context, amount int64) (string, error) {
	if amount <= 0 {
		return "", apperror.ValidationFailed("amount", "amount must be a positive integer")
	}
	if c.baseURL == "" {
		return "", fmt.Errorf("payment: no provider configured")
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", "usd")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("payment: building intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("payment provider unreachable", slog.String("error", err.Error()))
		return "", fmt.Errorf("payment: provider request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		c.logger.Error("payment provider rejected intent",
			slog.Int("status", res.StatusCode),
			slog.String("body", strings.TrimSpace(string(body))),
		)
		return "", fmt.Errorf("payment: provider returned status %d", res.StatusCode)
	}

	var intent intentResponse
	if err := json.NewDecoder(res.Body).Decode(&intent); err != nil {
		return "", fmt.Errorf("payment: decoding provider response: %w", err)
	}
	if intent.ClientSecret == "" {
		return "", fmt.Errorf("payment: provider response has no client secret")
	}

	return intent.ClientSecret, nil
}
