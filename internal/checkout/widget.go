package checkout

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"shophub-be/internal/payment"

	"github.com/shopspring/decimal"
)

var (
	ErrWidgetNotLoaded  = errors.New("payment gateway not loaded, please refresh and try again")
	ErrPaymentDismissed = errors.New("payment cancelled by user")
)

// WidgetOptions is what the provider widget is opened with.
type WidgetOptions struct {
	Key           string
	RemoteOrderID string
	Amount        int64
	Currency      string
	Name          string
	Description   string
}

// Widget is the provider's client-side payment form. Open blocks until the
// user pays or dismisses it; dismissal returns ErrPaymentDismissed.
type Widget interface {
	Loaded() bool
	Open(ctx context.Context, opts WidgetOptions) (payment.Proof, error)
}

// TerminalWidget collects the provider's callback from a terminal: the user
// completes payment elsewhere and pastes the payment id and signature.
type TerminalWidget struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminalWidget(in io.Reader, out io.Writer) *TerminalWidget {
	return &TerminalWidget{in: bufio.NewReader(in), out: out}
}

func (w *TerminalWidget) Loaded() bool {
	return w != nil && w.in != nil && w.out != nil
}

func (w *TerminalWidget) Open(ctx context.Context, opts WidgetOptions) (payment.Proof, error) {
	amount := decimal.New(opts.Amount, -2)
	fmt.Fprintf(w.out, "Pay %s %s to %s (order %s, key %s)\n",
		amount.StringFixed(2), opts.Currency, opts.Name, opts.RemoteOrderID, opts.Key)

	paymentID, err := w.prompt(ctx, "Payment id (empty to cancel): ")
	if err != nil || paymentID == "" {
		return payment.Proof{}, dismissed(err)
	}
	signature, err := w.prompt(ctx, "Signature (empty to cancel): ")
	if err != nil || signature == "" {
		return payment.Proof{}, dismissed(err)
	}

	return payment.Proof{
		OrderID:   opts.RemoteOrderID,
		PaymentID: paymentID,
		Signature: signature,
	}, nil
}

func (w *TerminalWidget) prompt(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(w.out, label)
	line, err := w.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// dismissed maps a closed input to a dismissal but keeps real failures.
func dismissed(err error) error {
	if err == nil || errors.Is(err, io.EOF) {
		return ErrPaymentDismissed
	}
	return err
}
