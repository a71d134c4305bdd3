// Package checkout drives the marketplace API the way the web client does:
// price a cart, take payment through the provider widget and place the order.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shophub-be/internal/logger"
	"shophub-be/internal/order"
	"shophub-be/internal/payment"
	"shophub-be/internal/user"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// APIError is a non-2xx response. Message is the server's text, unchanged.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Token() string { return c.token }

func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	logger.FromCtx(ctx).Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Message != "" {
			return &APIError{Status: resp.StatusCode, Message: envelope.Message}
		}
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Login stores the issued token on the client and returns the user.
func (c *Client) Login(ctx context.Context, email, password string) (*user.User, error) {
	var res struct {
		Token string     `json:"token"`
		User  *user.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.Token
	return res.User, nil
}

func (c *Client) Key(ctx context.Context) (string, error) {
	var res struct {
		Key string `json:"key"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/payment/key", nil, &res); err != nil {
		return "", err
	}
	return res.Key, nil
}

func (c *Client) Quote(ctx context.Context, items []order.CartItem) (*order.Quote, error) {
	var q order.Quote
	err := c.do(ctx, http.MethodPost, "/api/orders/quote", map[string]any{"orderItems": items}, &q)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CreatePaymentOrder opens a provider order for amount and returns it with
// the public key the widget needs.
func (c *Client) CreatePaymentOrder(ctx context.Context, amount decimal.Decimal, currency string) (*payment.RemoteOrder, string, error) {
	var res struct {
		Order *payment.RemoteOrder `json:"order"`
		Key   string               `json:"key"`
	}
	err := c.do(ctx, http.MethodPost, "/api/payment/create-order", map[string]any{"amount": amount, "currency": currency}, &res)
	if err != nil {
		return nil, "", err
	}
	if res.Order == nil {
		return nil, "", fmt.Errorf("create payment order: empty response")
	}
	return res.Order, res.Key, nil
}

func (c *Client) VerifyPayment(ctx context.Context, proof payment.Proof) error {
	var res struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/payment/verify", proof, &res); err != nil {
		return err
	}
	if !res.Success {
		return &APIError{Status: http.StatusOK, Message: "Payment verification failed"}
	}
	return nil
}

func (c *Client) PlaceOrder(ctx context.Context, input order.PlaceOrderInput) (*order.Order, error) {
	var o order.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", input, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]*order.Order, error) {
	var orders []*order.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
