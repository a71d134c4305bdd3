package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shophub-be/internal/logger"
	"shophub-be/internal/order"
	"shophub-be/internal/payment"

	"go.uber.org/zap"
)

var ErrEmptyCart = errors.New("your cart is empty")

// UnreconciledPaymentError means the provider captured a payment but the
// order could not be created. It must reach the user as-is.
type UnreconciledPaymentError struct {
	PaymentID string
	Err       error
}

func (e *UnreconciledPaymentError) Error() string {
	return fmt.Sprintf(
		"order creation failed after payment %s: %v. Please contact support with this payment id",
		e.PaymentID, e.Err,
	)
}

func (e *UnreconciledPaymentError) Unwrap() error { return e.Err }

type Flow struct {
	API      *Client
	Widget   Widget
	Currency string
	// StoreName is shown on the payment widget.
	StoreName string
}

func NewFlow(api *Client, widget Widget) *Flow {
	return &Flow{API: api, Widget: widget, Currency: payment.DefaultCurrency, StoreName: "ShopHub"}
}

// Checkout places an order for the cart. The cart is cleared only once the
// order exists on the server.
func (f *Flow) Checkout(ctx context.Context, cart *Cart, address order.ShippingAddress, method order.PaymentMethod) (*order.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "checkout"),
		zap.String("method", "Checkout"),
		zap.String("payment_method", string(method)),
	)

	items := cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	input := order.PlaceOrderInput{
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   method,
	}

	switch method {
	case order.PaymentCOD:
		o, err := f.API.PlaceOrder(ctx, input)
		if err != nil {
			log.Warn("order placement failed", zap.Error(err))
			return nil, err
		}
		cart.Clear()
		log.Info("order placed", zap.String("order_id", o.ID))
		return o, nil

	case order.PaymentOnline:
		proof, err := f.pay(ctx, items)
		if err != nil {
			log.Info("payment not completed", zap.Error(err))
			return nil, err
		}

		input.PaymentInfo = &proof
		o, err := f.API.PlaceOrder(ctx, input)
		if err != nil {
			log.Error("order creation failed after payment",
				zap.String("razorpay_payment_id", proof.PaymentID),
				zap.Error(err),
			)
			return nil, &UnreconciledPaymentError{PaymentID: proof.PaymentID, Err: err}
		}
		cart.Clear()
		log.Info("order placed", zap.String("order_id", o.ID))
		return o, nil

	default:
		return nil, order.ErrInvalidPaymentMethod
	}
}

// pay runs the widget for the quoted total and returns a verified proof.
func (f *Flow) pay(ctx context.Context, items []order.CartItem) (payment.Proof, error) {
	if f.Widget == nil || !f.Widget.Loaded() {
		return payment.Proof{}, ErrWidgetNotLoaded
	}

	quote, err := f.API.Quote(ctx, items)
	if err != nil {
		return payment.Proof{}, err
	}

	currency := strings.ToUpper(f.Currency)
	if currency == "" {
		currency = payment.DefaultCurrency
	}
	remote, key, err := f.API.CreatePaymentOrder(ctx, quote.TotalPrice, currency)
	if err != nil {
		return payment.Proof{}, err
	}

	proof, err := f.Widget.Open(ctx, WidgetOptions{
		Key:           key,
		RemoteOrderID: remote.ID,
		Amount:        remote.Amount,
		Currency:      remote.Currency,
		Name:          f.StoreName,
		Description:   fmt.Sprintf("Order of %d item(s)", len(quote.Items)),
	})
	if err != nil {
		return payment.Proof{}, err
	}

	if err := f.API.VerifyPayment(ctx, proof); err != nil {
		return payment.Proof{}, err
	}
	return proof, nil
}
