package rest

import (
	"net/http"
	"strings"

	"shophub-be/internal/apperr"
	"shophub-be/internal/logger"
	"shophub-be/internal/payment"
	"shophub-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	errMissingVerifyFields = apperr.Validation("missing payment verification details")
	errInvalidSignature    = apperr.Validation("invalid payment signature")
)

type PaymentHandler struct {
	Gateway  payment.Gateway
	Currency string
}

func NewPaymentHandler(gateway payment.Gateway, currency string) *PaymentHandler {
	if currency == "" {
		currency = payment.DefaultCurrency
	}
	return &PaymentHandler{Gateway: gateway, Currency: currency}
}

type createOrderRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, r, payment.ErrInvalidAmount)
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = h.Currency
	}

	order, err := h.Gateway.CreateRemoteOrder(r.Context(), req.Amount, currency)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   order,
		"key":     h.Gateway.KeyID(),
	})
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var proof payment.Proof
	if err := decodeJSON(w, r, &proof); err != nil {
		writeError(w, r, err)
		return
	}
	if !proof.Complete() {
		writeError(w, r, errMissingVerifyFields)
		return
	}

	if !h.Gateway.VerifySignature(proof.OrderID, proof.PaymentID, proof.Signature) {
		logger.FromCtx(r.Context()).Warn("payment verification failed",
			zap.String("razorpay_order_id", proof.OrderID),
			zap.String("razorpay_payment_id", proof.PaymentID),
		)
		writeError(w, r, errInvalidSignature)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Payment verified successfully",
		"payment_id": proof.PaymentID,
	})
}

func (h *PaymentHandler) Key(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "key": h.Gateway.KeyID()})
}

type refundRequest struct {
	PaymentID string           `json:"payment_id"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
}

func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.PaymentID) == "" {
		writeError(w, r, payment.ErrMissingPayment)
		return
	}

	refund, err := h.Gateway.Refund(r.Context(), req.PaymentID, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromCtx(r.Context()).Info("refund issued",
		zap.String("payment_id", req.PaymentID),
		zap.String("refund_id", refund.ID),
		zap.String("actor_id", principal(r).UserID),
	)

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Refund processed successfully",
		"refund":  refund,
	})
}
