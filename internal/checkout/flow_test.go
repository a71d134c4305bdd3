package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"shophub-be/internal/order"
	"shophub-be/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var address = order.ShippingAddress{
	Street: "1 MG Road", City: "Pune", State: "MH",
	ZipCode: "411001", Country: "IN", Phone: "9999999999",
}

// fakeAPI records calls per path and answers with canned responses. A path
// listed in fail gets a 4xx/5xx with the given message.
type fakeAPI struct {
	*httptest.Server

	mu     sync.Mutex
	calls  map[string]int
	bodies map[string][]byte
	fail   map[string]struct {
		status  int
		message string
	}
}

func newFakeAPI(t *testing.T) *fakeAPI {
	api := &fakeAPI{
		calls:  map[string]int{},
		bodies: map[string][]byte{},
		fail: map[string]struct {
			status  int
			message string
		}{},
	}
	api.Server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) failOn(path string, status int, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fail[path] = struct {
		status  int
		message string
	}{status, message}
}

func (a *fakeAPI) count(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[path]
}

func (a *fakeAPI) body(path string) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bodies[path]
}

func (a *fakeAPI) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		n += c
	}
	return n
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	_ = json.NewDecoder(r.Body).Decode(&raw)

	a.mu.Lock()
	a.calls[r.URL.Path]++
	a.bodies[r.URL.Path] = raw
	f, failing := a.fail[r.URL.Path]
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failing {
		w.WriteHeader(f.status)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": f.message})
		return
	}

	switch r.URL.Path {
	case "/api/orders/quote":
		_, _ = w.Write([]byte(`{"orderItems":[{"product":"p-lamp","seller":"s-1","name":"Lamp","price":"300","quantity":2}],
			"itemsPrice":"600","shippingPrice":"0","taxPrice":"108","totalPrice":"708"}`))
	case "/api/payment/create-order":
		_, _ = w.Write([]byte(`{"success":true,"key":"rzp_test_key",
			"order":{"id":"order_1","amount":70800,"currency":"INR","receipt":"receipt_1"}}`))
	case "/api/payment/verify":
		_, _ = w.Write([]byte(`{"success":true,"message":"Payment verified successfully","payment_id":"pay_1"}`))
	case "/api/orders":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"o-1","orderStatus":"pending","totalPrice":"708"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Route not found"}`))
	}
}

type stubWidget struct {
	loaded bool
	proof  payment.Proof
	err    error
	opened []WidgetOptions
}

func (w *stubWidget) Loaded() bool { return w.loaded }

func (w *stubWidget) Open(_ context.Context, opts WidgetOptions) (payment.Proof, error) {
	w.opened = append(w.opened, opts)
	return w.proof, w.err
}

func paidWidget() *stubWidget {
	return &stubWidget{
		loaded: true,
		proof:  payment.Proof{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"},
	}
}

func newCart() *Cart {
	return NewCart(order.CartItem{ProductID: "p-lamp", Quantity: 2})
}

func TestFlow_CheckoutCOD(t *testing.T) {
	api := newFakeAPI(t)
	flow := NewFlow(NewClient(api.URL, "tok"), nil)
	cart := newCart()

	o, err := flow.Checkout(context.Background(), cart, address, order.PaymentCOD)

	require.NoError(t, err)
	assert.Equal(t, "o-1", o.ID)
	assert.Equal(t, 0, cart.Len())
	assert.Equal(t, 1, api.count("/api/orders"))
	assert.Zero(t, api.count("/api/payment/create-order"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(api.body("/api/orders"), &sent))
	assert.Equal(t, "cod", sent["paymentMethod"])
	assert.NotContains(t, sent, "paymentInfo")
}

func TestFlow_CheckoutCODServerMessageVerbatim(t *testing.T) {
	api := newFakeAPI(t)
	api.failOn("/api/orders", http.StatusBadRequest, "Lamp is out of stock")
	cart := newCart()

	_, err := NewFlow(NewClient(api.URL, "tok"), nil).Checkout(context.Background(), cart, address, order.PaymentCOD)

	require.Error(t, err)
	assert.Equal(t, "Lamp is out of stock", err.Error())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, 1, cart.Len())
}

func TestFlow_CheckoutOnline(t *testing.T) {
	api := newFakeAPI(t)
	widget := paidWidget()
	cart := newCart()

	o, err := NewFlow(NewClient(api.URL, "tok"), widget).Checkout(context.Background(), cart, address, order.PaymentOnline)

	require.NoError(t, err)
	assert.Equal(t, "o-1", o.ID)
	assert.Equal(t, 0, cart.Len())

	require.Len(t, widget.opened, 1)
	assert.Equal(t, "rzp_test_key", widget.opened[0].Key)
	assert.Equal(t, "order_1", widget.opened[0].RemoteOrderID)
	assert.Equal(t, int64(70800), widget.opened[0].Amount)

	var created map[string]any
	require.NoError(t, json.Unmarshal(api.body("/api/payment/create-order"), &created))
	assert.Equal(t, "708", created["amount"])
	assert.Equal(t, "INR", created["currency"])

	var placed map[string]any
	require.NoError(t, json.Unmarshal(api.body("/api/orders"), &placed))
	info := placed["paymentInfo"].(map[string]any)
	assert.Equal(t, "pay_1", info["razorpay_payment_id"])
	assert.Equal(t, "sig", info["razorpay_signature"])
}

func TestFlow_CheckoutOnlineWidgetNotLoaded(t *testing.T) {
	for name, w := range map[string]Widget{
		"Nil":       nil,
		"NotLoaded": &stubWidget{loaded: false},
	} {
		t.Run(name, func(t *testing.T) {
			api := newFakeAPI(t)
			cart := newCart()

			_, err := NewFlow(NewClient(api.URL, "tok"), w).Checkout(context.Background(), cart, address, order.PaymentOnline)

			assert.ErrorIs(t, err, ErrWidgetNotLoaded)
			assert.Zero(t, api.total())
			assert.Equal(t, 1, cart.Len())
		})
	}
}

func TestFlow_CheckoutOnlineDismissedKeepsCart(t *testing.T) {
	api := newFakeAPI(t)
	widget := &stubWidget{loaded: true, err: ErrPaymentDismissed}
	cart := newCart()

	_, err := NewFlow(NewClient(api.URL, "tok"), widget).Checkout(context.Background(), cart, address, order.PaymentOnline)

	assert.ErrorIs(t, err, ErrPaymentDismissed)
	assert.Equal(t, 1, cart.Len())
	assert.Zero(t, api.count("/api/payment/verify"))
	assert.Zero(t, api.count("/api/orders"))
}

func TestFlow_CheckoutOnlineVerificationFailure(t *testing.T) {
	api := newFakeAPI(t)
	api.failOn("/api/payment/verify", http.StatusBadRequest, "Invalid payment signature")
	cart := newCart()

	_, err := NewFlow(NewClient(api.URL, "tok"), paidWidget()).Checkout(context.Background(), cart, address, order.PaymentOnline)

	require.Error(t, err)
	assert.Equal(t, "Invalid payment signature", err.Error())
	assert.Zero(t, api.count("/api/orders"))
	assert.Equal(t, 1, cart.Len())
}

func TestFlow_CheckoutOnlineGatewayMessageVerbatim(t *testing.T) {
	api := newFakeAPI(t)
	api.failOn("/api/payment/create-order", http.StatusInternalServerError, "Order amount less than minimum amount allowed")
	widget := paidWidget()

	_, err := NewFlow(NewClient(api.URL, "tok"), widget).Checkout(context.Background(), newCart(), address, order.PaymentOnline)

	require.Error(t, err)
	assert.Equal(t, "Order amount less than minimum amount allowed", err.Error())
	assert.Empty(t, widget.opened)
}

func TestFlow_CheckoutOnlineOrderFailsAfterPayment(t *testing.T) {
	api := newFakeAPI(t)
	api.failOn("/api/orders", http.StatusInternalServerError, "database unavailable")
	cart := newCart()

	_, err := NewFlow(NewClient(api.URL, "tok"), paidWidget()).Checkout(context.Background(), cart, address, order.PaymentOnline)

	var unreconciled *UnreconciledPaymentError
	require.ErrorAs(t, err, &unreconciled)
	assert.Equal(t, "pay_1", unreconciled.PaymentID)
	assert.Contains(t, err.Error(), "contact support")
	assert.Contains(t, err.Error(), "pay_1")
	assert.Contains(t, err.Error(), "database unavailable")
	assert.Equal(t, 1, cart.Len())
}

func TestFlow_CheckoutRejectsBadInput(t *testing.T) {
	api := newFakeAPI(t)
	flow := NewFlow(NewClient(api.URL, "tok"), paidWidget())

	_, err := flow.Checkout(context.Background(), NewCart(), address, order.PaymentCOD)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = flow.Checkout(context.Background(), newCart(), address, order.PaymentMethod("card"))
	assert.ErrorIs(t, err, order.ErrInvalidPaymentMethod)

	assert.Zero(t, api.total())
}

func TestClient_SendsBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	orders, err := NewClient(srv.URL+"/", "tok").MyOrders(context.Background())

	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, "Bearer tok", got)
}

func TestClient_LoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"token":"jwt-1","user":{"id":"u-1","email":"bea@example.com","role":"user"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	u, err := c.Login(context.Background(), "bea@example.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "jwt-1", c.Token())
}

func TestClient_NonJSONErrorFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Key(context.Background())

	require.Error(t, err)
	assert.Equal(t, "Bad Gateway", err.Error())
}

func TestCart_AddMergesAndCopies(t *testing.T) {
	c := NewCart()
	c.Add("p-1", 1)
	c.Add("p-2", 3)
	c.Add("p-1", 2)
	c.Add("p-3", 0)
	c.Add("", 1)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, order.CartItem{ProductID: "p-1", Quantity: 3}, items[0])

	items[0].Quantity = 99
	assert.Equal(t, 3, c.Items()[0].Quantity)

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestTerminalWidget(t *testing.T) {
	opts := WidgetOptions{Key: "rzp_test_key", RemoteOrderID: "order_1", Amount: 70800, Currency: "INR", Name: "ShopHub"}

	t.Run("ReadsProof", func(t *testing.T) {
		var out strings.Builder
		w := NewTerminalWidget(strings.NewReader("pay_1\nsig_1\n"), &out)

		require.True(t, w.Loaded())
		proof, err := w.Open(context.Background(), opts)

		require.NoError(t, err)
		assert.Equal(t, payment.Proof{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig_1"}, proof)
		assert.Contains(t, out.String(), "708.00 INR")
	})

	t.Run("EmptyInputDismisses", func(t *testing.T) {
		w := NewTerminalWidget(strings.NewReader("\n"), &strings.Builder{})

		_, err := w.Open(context.Background(), opts)

		assert.ErrorIs(t, err, ErrPaymentDismissed)
	})

	t.Run("ClosedInputDismisses", func(t *testing.T) {
		w := NewTerminalWidget(strings.NewReader("pay_1\n"), &strings.Builder{})

		_, err := w.Open(context.Background(), opts)

		assert.ErrorIs(t, err, ErrPaymentDismissed)
	})

	t.Run("NilIsNotLoaded", func(t *testing.T) {
		var w *TerminalWidget
		assert.False(t, w.Loaded())
	})
}
