package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shophub-be/internal/apperr"
	"shophub-be/internal/logger"
	"shophub-be/internal/metrics"
	"shophub-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

type razorpayGateway struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Registry
	receipt    func() string
}

// ----------------- Constructor -----------------

func NewRazorpayGateway(cfg RazorpayConfig, m *metrics.Registry) Gateway {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		logger.L().Warn("Razorpay credentials are empty")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = razorpayBaseURL
	}

	return &razorpayGateway{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		metrics: m,
		receipt: utils.GenerateReceipt,
	}
}

func (g *razorpayGateway) KeyID() string {
	return g.keyID
}

// razorpayError is the provider's error envelope.
type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// providerError turns a non-2xx response into a gateway error carrying the
// provider's description.
func providerError(status int, body []byte) error {
	var e razorpayError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Description != "" {
		return apperr.Gateway(errors.New(e.Error.Description))
	}
	return apperr.Gateway(fmt.Errorf("razorpay error (status %d): %s", status, string(body)))
}

// do sends body as JSON and decodes a 2xx response into out.
func (g *razorpayGateway) do(ctx context.Context, log *zap.Logger, method, path string, body any, out any) error {
	timer := metrics.StartTimer()

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error("Failed to marshal request", zap.Error(err))
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return err
	}

	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Add("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.metrics.Inc(metrics.GatewayErrors)
		log.Error("Razorpay request failed", zap.Error(err), zap.Duration("duration", timer.Duration()))
		return apperr.Gateway(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		g.metrics.Inc(metrics.GatewayErrors)
		log.Error("Failed to read response body", zap.Error(err))
		return apperr.Gateway(fmt.Errorf("failed to read razorpay response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.metrics.Inc(metrics.GatewayErrors)
		log.Error("Razorpay returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
			zap.Duration("duration", timer.Duration()),
		)
		return providerError(resp.StatusCode, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		g.metrics.Inc(metrics.GatewayErrors)
		log.Error("Failed decoding Razorpay response", zap.Error(err))
		return apperr.Gateway(fmt.Errorf("failed to decode razorpay response: %w", err))
	}

	log.Debug("Razorpay call completed", zap.Duration("duration", timer.Duration()))
	return nil
}

// ----------------- CreateRemoteOrder -----------------

func (g *razorpayGateway) CreateRemoteOrder(ctx context.Context, amount decimal.Decimal, currency string) (*RemoteOrder, error) {
	// Sub-paisa amounts round to zero minor units.
	minor := ToMinorUnits(amount)
	if minor <= 0 {
		return nil, ErrInvalidAmount
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	receipt := g.receipt()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "CreateRemoteOrder"),
		zap.Int64("amount", minor),
		zap.String("currency", currency),
		zap.String("receipt", receipt),
	)

	body := map[string]interface{}{
		"amount":          minor,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}

	log.Info("Sending order request to Razorpay")

	var res RemoteOrder
	if err := g.do(ctx, log, http.MethodPost, "/orders", body, &res); err != nil {
		return nil, err
	}

	log.Info("Razorpay order created", zap.String("remote_order_id", res.ID))
	return &res, nil
}

// ----------------- Verify Signature -----------------

func (g *razorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	ok := VerifySignature(g.keySecret, orderID, paymentID, signature)
	if !ok {
		g.metrics.Inc(metrics.SignatureFailures)
	}
	return ok
}

// ----------------- Refund -----------------

func (g *razorpayGateway) Refund(ctx context.Context, paymentID string, amount *decimal.Decimal) (*Refund, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, ErrMissingPayment
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "Refund"),
		zap.String("payment_id", paymentID),
	)

	body := map[string]interface{}{}
	if amount != nil {
		minor := ToMinorUnits(*amount)
		if minor <= 0 {
			return nil, ErrInvalidAmount
		}
		body["amount"] = minor
	}

	var res Refund
	if err := g.do(ctx, log, http.MethodPost, "/payments/"+url.PathEscape(paymentID)+"/refund", body, &res); err != nil {
		return nil, err
	}

	g.metrics.Inc(metrics.RefundsIssued)
	log.Info("Refund processed",
		zap.String("refund_id", res.ID),
		zap.Int64("amount", res.Amount),
	)
	return &res, nil
}
