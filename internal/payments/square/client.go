// Package square is a thin REST client for the Square Terminal API,
// implementing the provider surface the payment state machine consumes:
// create, fetch, and cancel terminal checkouts, and fetch the underlying
// payment record.
package square

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pawdesk/pawdesk/internal/money"
	"github.com/pawdesk/pawdesk/internal/payments"
)

const (
	productionBaseURL = "https://connect.squareup.com"
	sandboxBaseURL    = "https://connect.squareupsandbox.com"
	apiVersion        = "2025-01-23"
)

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at a different host, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(accessToken, environment string, opts ...Option) *Client {
	base := sandboxBaseURL
	if strings.EqualFold(environment, "production") {
		base = productionBaseURL
	}
	c := &Client{
		baseURL:     base,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Factory builds the payments.ProviderFactory wiring for this client.
func Factory(opts ...Option) payments.ProviderFactory {
	return func(credentials map[string]string, locationID string) (payments.Provider, error) {
		token := credentials["access_token"]
		if token == "" {
			return nil, fmt.Errorf("square credentials missing access_token")
		}
		// base_url in the credential bundle points the client at a local
		// simulator; production bundles never carry it.
		if u := credentials["base_url"]; u != "" {
			opts = append([]Option{WithBaseURL(u)}, opts...)
		}
		return NewClient(token, credentials["environment"], opts...), nil
	}
}

type apiMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type apiCheckout struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	PaymentIDs []string  `json:"payment_ids"`
	TipMoney   *apiMoney `json:"tip_money"`
	TotalMoney *apiMoney `json:"total_money"`
	ReceiptURL string    `json:"receipt_url"`
	CreatedAt  string    `json:"created_at"`
	UpdatedAt  string    `json:"updated_at"`
}

type apiPayment struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	TipMoney   *apiMoney `json:"tip_money"`
	TotalMoney *apiMoney `json:"total_money"`
	ReceiptURL string    `json:"receipt_url"`
}

type apiError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

func (c *Client) CreateCheckout(ctx context.Context, deviceID string, amount money.Cents, referenceID, note string) (payments.Checkout, error) {
	body := map[string]any{
		// A fresh token per call: retried initiations are distinct checkouts.
		"idempotency_key": uuid.NewString(),
		"checkout": map[string]any{
			"amount_money": apiMoney{Amount: int64(amount), Currency: "USD"},
			"device_options": map[string]any{
				"device_id": deviceID,
				"tip_settings": map[string]any{
					"allow_tipping":       true,
					"separate_tip_screen": true,
					"smart_tipping":       true,
				},
			},
			"payment_options": map[string]any{
				"autocomplete": true,
			},
			"reference_id": referenceID,
			"note":         note,
		},
	}

	var out struct {
		Checkout apiCheckout `json:"checkout"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/terminals/checkouts", body, &out); err != nil {
		return payments.Checkout{}, err
	}
	return toCheckout(out.Checkout), nil
}

func (c *Client) GetCheckout(ctx context.Context, checkoutID string) (payments.Checkout, error) {
	var out struct {
		Checkout apiCheckout `json:"checkout"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/terminals/checkouts/"+checkoutID, nil, &out); err != nil {
		return payments.Checkout{}, err
	}
	return toCheckout(out.Checkout), nil
}

func (c *Client) CancelCheckout(ctx context.Context, checkoutID string) (payments.Checkout, error) {
	var out struct {
		Checkout apiCheckout `json:"checkout"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/terminals/checkouts/"+checkoutID+"/cancel", nil, &out); err != nil {
		return payments.Checkout{}, err
	}
	return toCheckout(out.Checkout), nil
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (payments.PaymentRecord, error) {
	var out struct {
		Payment apiPayment `json:"payment"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/payments/"+paymentID, nil, &out); err != nil {
		return payments.PaymentRecord{}, err
	}
	return payments.PaymentRecord{
		ID:         out.Payment.ID,
		Status:     out.Payment.Status,
		TipMoney:   toMoney(out.Payment.TipMoney),
		TotalMoney: toMoney(out.Payment.TotalMoney),
		ReceiptURL: out.Payment.ReceiptURL,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Square-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Errors []apiError `json:"errors"`
		}
		if err := json.Unmarshal(payload, &failure); err == nil && len(failure.Errors) > 0 {
			e := failure.Errors[0]
			return fmt.Errorf("square %s %s: %s %s: %s", method, path, e.Category, e.Code, e.Detail)
		}
		return fmt.Errorf("square %s %s: status %d", method, path, resp.StatusCode)
	}
	return json.Unmarshal(payload, out)
}

func toCheckout(in apiCheckout) payments.Checkout {
	out := payments.Checkout{
		ID:         in.ID,
		Status:     in.Status,
		TipMoney:   toMoney(in.TipMoney),
		TotalMoney: toMoney(in.TotalMoney),
		ReceiptURL: in.ReceiptURL,
		CreatedAt:  in.CreatedAt,
		UpdatedAt:  in.UpdatedAt,
	}
	if len(in.PaymentIDs) > 0 {
		out.PaymentID = in.PaymentIDs[0]
	}
	return out
}

func toMoney(in *apiMoney) *payments.Money {
	if in == nil {
		return nil
	}
	return &payments.Money{Amount: money.Cents(in.Amount), Currency: in.Currency}
}
