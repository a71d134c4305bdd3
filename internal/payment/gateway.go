// Package payment bridges the marketplace and the hosted payment provider.
package payment

import (
	"context"

	"shophub-be/internal/apperr"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "INR"

// Gateway creates remote orders, authenticates completed payments and issues
// refunds. One instance is built at startup and passed to its consumers.
type Gateway interface {
	// KeyID is the public key the client widget is opened with.
	KeyID() string
	CreateRemoteOrder(ctx context.Context, amount decimal.Decimal, currency string) (*RemoteOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
	// Refund refunds amount, or the full captured amount when amount is nil.
	Refund(ctx context.Context, paymentID string, amount *decimal.Decimal) (*Refund, error)
}

// RemoteOrder is the provider-side resource for one checkout attempt.
// Amount is in minor currency units.
type RemoteOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type Refund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// Proof is what the provider hands the client after a completed payment.
type Proof struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (p Proof) Complete() bool {
	return p.OrderID != "" && p.PaymentID != "" && p.Signature != ""
}

var (
	ErrInvalidAmount  = apperr.Validation("amount must be greater than zero")
	ErrMissingPayment = apperr.Validation("payment id is required")
)

// ToMinorUnits converts a major-unit amount to the provider's integer minor
// units, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
