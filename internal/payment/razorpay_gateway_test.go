package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"shophub-be/internal/apperr"
	"shophub-be/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func newTestGateway(reg *metrics.Registry) *razorpayGateway {
	gw := NewRazorpayGateway(RazorpayConfig{KeyID: "rzp_test_key", KeySecret: "test-secret"}, reg).(*razorpayGateway)
	gw.receipt = func() string { return "receipt_1700000000000_0001" }
	return gw
}

func TestRazorpayGateway_CreateRemoteOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		gw := newTestGateway(nil)

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "POST", req.Method)
			assert.Equal(t, "https://api.razorpay.com/v1/orders", req.URL.String())

			user, pass, ok := req.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "rzp_test_key", user)
			assert.Equal(t, "test-secret", pass)

			var body map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, float64(70800), body["amount"])
			assert.Equal(t, "INR", body["currency"])
			assert.Equal(t, "receipt_1700000000000_0001", body["receipt"])
			assert.Equal(t, float64(1), body["payment_capture"])

			return jsonResponse(http.StatusOK, `{
				"id": "order_abc",
				"entity": "order",
				"amount": 70800,
				"currency": "INR",
				"receipt": "receipt_1700000000000_0001",
				"status": "created"
			}`)
		})

		order, err := gw.CreateRemoteOrder(ctx, decimal.RequireFromString("708"), "")
		require.NoError(t, err)
		assert.Equal(t, &RemoteOrder{
			ID:       "order_abc",
			Amount:   70800,
			Currency: "INR",
			Receipt:  "receipt_1700000000000_0001",
		}, order)
	})

	t.Run("RoundsToNearestMinorUnit", func(t *testing.T) {
		gw := newTestGateway(nil)

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			var body map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, float64(1999), body["amount"])
			assert.Equal(t, "USD", body["currency"])
			return jsonResponse(http.StatusOK, `{"id":"order_x","amount":1999,"currency":"USD"}`)
		})

		_, err := gw.CreateRemoteOrder(ctx, decimal.RequireFromString("19.985"), "USD")
		require.NoError(t, err)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		gw := newTestGateway(nil)
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			t.Fatal("provider must not be called")
			return nil
		})

		_, err := gw.CreateRemoteOrder(ctx, decimal.Zero, "INR")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = gw.CreateRemoteOrder(ctx, decimal.NewFromInt(-5), "INR")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = gw.CreateRemoteOrder(ctx, decimal.RequireFromString("0.004"), "INR")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("ProviderError", func(t *testing.T) {
		reg := metrics.NewRegistry()
		gw := newTestGateway(reg)

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusBadRequest, `{"error":{"code":"BAD_REQUEST_ERROR","description":"Order amount less than minimum amount allowed"}}`)
		})

		_, err := gw.CreateRemoteOrder(ctx, decimal.NewFromInt(1), "INR")
		require.Error(t, err)
		assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))
		assert.Equal(t, "Order amount less than minimum amount allowed", err.Error())
		assert.Equal(t, uint64(1), reg.GatewayErrors.Load())
	})

	t.Run("ProviderErrorWithoutEnvelope", func(t *testing.T) {
		gw := newTestGateway(nil)
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusBadGateway, `upstream down`)
		})

		_, err := gw.CreateRemoteOrder(ctx, decimal.NewFromInt(1), "INR")
		assert.ErrorContains(t, err, "razorpay error (status 502)")
	})

	t.Run("NetworkError", func(t *testing.T) {
		gw := newTestGateway(nil)
		calls := 0
		gw.httpClient.Transport = MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			calls++
			return nil, errors.New("connection refused")
		})

		_, err := gw.CreateRemoteOrder(ctx, decimal.NewFromInt(100), "INR")
		require.Error(t, err)
		assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))
		assert.Contains(t, err.Error(), "connection refused")
		assert.Equal(t, 1, calls, "gateway calls are never retried")
	})

	t.Run("InvalidJSONResponse", func(t *testing.T) {
		gw := newTestGateway(nil)
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{invalid-json`)
		})

		_, err := gw.CreateRemoteOrder(ctx, decimal.NewFromInt(100), "INR")
		assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))
	})
}

func TestRazorpayGateway_Refund(t *testing.T) {
	ctx := context.Background()

	t.Run("FullRefundOmitsAmount", func(t *testing.T) {
		reg := metrics.NewRegistry()
		gw := newTestGateway(reg)

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "https://api.razorpay.com/v1/payments/pay_123/refund", req.URL.String())

			var body map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			_, hasAmount := body["amount"]
			assert.False(t, hasAmount)

			return jsonResponse(http.StatusOK, `{"id":"rfnd_1","entity":"refund","payment_id":"pay_123","amount":70800,"currency":"INR","status":"processed","created_at":1700000000}`)
		})

		refund, err := gw.Refund(ctx, "pay_123", nil)
		require.NoError(t, err)
		assert.Equal(t, "rfnd_1", refund.ID)
		assert.Equal(t, int64(70800), refund.Amount)
		assert.Equal(t, "processed", refund.Status)
		assert.Equal(t, uint64(1), reg.RefundsIssued.Load())
	})

	t.Run("PartialRefund", func(t *testing.T) {
		gw := newTestGateway(nil)
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			var body map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, float64(5050), body["amount"])
			return jsonResponse(http.StatusOK, `{"id":"rfnd_2","payment_id":"pay_123","amount":5050}`)
		})

		amount := decimal.RequireFromString("50.50")
		refund, err := gw.Refund(ctx, "pay_123", &amount)
		require.NoError(t, err)
		assert.Equal(t, int64(5050), refund.Amount)
	})

	t.Run("AmountBelowOneMinorUnit", func(t *testing.T) {
		gw := newTestGateway(nil)
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			t.Fatal("provider must not be called")
			return nil
		})

		for _, raw := range []string{"0", "-1", "0.004"} {
			amount := decimal.RequireFromString(raw)
			_, err := gw.Refund(ctx, "pay_123", &amount)
			assert.ErrorIs(t, err, ErrInvalidAmount, raw)
		}
	})

	t.Run("MissingPaymentID", func(t *testing.T) {
		gw := newTestGateway(nil)
		_, err := gw.Refund(ctx, " ", nil)
		assert.ErrorIs(t, err, ErrMissingPayment)
	})

	t.Run("AlreadyRefunded", func(t *testing.T) {
		gw := newTestGateway(nil)
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusBadRequest, `{"error":{"code":"BAD_REQUEST_ERROR","description":"The payment has been fully refunded already"}}`)
		})

		_, err := gw.Refund(ctx, "pay_123", nil)
		assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))
		assert.Equal(t, "The payment has been fully refunded already", apperr.PublicMessage(err))
	})
}

func TestRazorpayGateway_VerifySignature(t *testing.T) {
	reg := metrics.NewRegistry()
	gw := newTestGateway(reg)

	sig := Sign("test-secret", "order_abc", "pay_123")
	assert.True(t, gw.VerifySignature("order_abc", "pay_123", sig))
	assert.False(t, gw.VerifySignature("order_abc", "pay_124", sig))
	assert.Equal(t, uint64(1), reg.SignatureFailures.Load())
}

func TestNewRazorpayGateway_BaseURL(t *testing.T) {
	gw := NewRazorpayGateway(RazorpayConfig{KeyID: "k", KeySecret: "s", BaseURL: "http://localhost:9999/v1/"}, nil).(*razorpayGateway)
	assert.Equal(t, "http://localhost:9999/v1", gw.baseURL)
	assert.Equal(t, "k", gw.KeyID())
}
