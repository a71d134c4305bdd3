package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shophub-be/internal/auth"
	"shophub-be/internal/category"
	"shophub-be/internal/metrics"
	"shophub-be/internal/order"
	"shophub-be/internal/payment"
	"shophub-be/internal/product"
	"shophub-be/internal/user"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret = "jwt-test-secret"
	testKeyID     = "rzp_test_key"
	testKeySecret = "rzp_test_secret"
)

var (
	buyer   = auth.Principal{UserID: "buyer-1", Name: "Bea", Email: "bea@example.com", Role: auth.RoleUser}
	sellerA = auth.Principal{UserID: "seller-a", Role: auth.RoleSeller}
	sellerB = auth.Principal{UserID: "seller-b", Role: auth.RoleSeller}
	admin   = auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin}
)

// --- In-memory order store ---

type memoryOrders struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*order.Order
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{byID: map[string]*order.Order{}}
}

func (m *memoryOrders) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	o.ID = fmt.Sprintf("o-%d", m.seq)
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	stored := *o
	m.byID[o.ID] = &stored
	return nil
}

func (m *memoryOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memoryOrders) ListByBuyer(_ context.Context, buyerID string) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*order.Order{}
	for _, o := range m.byID {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memoryOrders) ListBySeller(_ context.Context, sellerID string) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*order.Order{}
	for _, o := range m.byID {
		if o.HasSeller(sellerID) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memoryOrders) UpdateStatus(_ context.Context, id string, from, to order.Status) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	if o.OrderStatus != from {
		return nil, order.ErrStatusChanged
	}
	o.OrderStatus = to
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (m *memoryOrders) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type staticCatalog map[string]*product.Product

func (c staticCatalog) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := c[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return p, nil
}

// --- Service mocks ---

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, input user.RegisterInput) (string, *user.User, error) {
	args := m.Called(ctx, input)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*user.User), args.Error(2)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*user.User), args.Error(2)
}

func (m *MockUserService) GetByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, actor auth.Principal, input product.NewProductInput) (*product.Product, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id string, viewer *auth.Principal) (*product.Product, error) {
	args := m.Called(ctx, id, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, actor auth.Principal, id string, input product.UpdateProductInput) (*product.Product, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, actor auth.Principal, id string) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockProductService) ListMine(ctx context.Context, actor auth.Principal) ([]*product.Product, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*product.Product), args.Error(1)
}

func (m *MockProductService) AddReview(ctx context.Context, reviewer auth.Principal, productID string, input product.ReviewInput) (*product.Product, error) {
	args := m.Called(ctx, reviewer, productID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) List(ctx context.Context, filter *string) ([]*category.Category, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*category.Category), args.Error(1)
}

func (m *MockCategoryService) Create(ctx context.Context, input category.NewCategoryInput) (*category.Category, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*category.Category), args.Error(1)
}

// --- Provider stub ---

// razorpayStub mimics the provider's orders and refunds endpoints. Orders
// under one rupee are rejected the way the provider does.
type razorpayStub struct {
	*httptest.Server
	calls atomic.Int32
}

func newRazorpayStub(t *testing.T) *razorpayStub {
	stub := &razorpayStub{}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.calls.Add(1)

		if id, secret, ok := r.BasicAuth(); !ok || id != testKeyID || secret != testKeySecret {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
			return
		}

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/orders":
			amount := int64(body["amount"].(float64))
			if amount < 100 {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Order amount less than minimum amount allowed"}}`))
				return
			}
			_ = json.NewEncoder(w).Encode(payment.RemoteOrder{
				ID: "order_stub", Amount: amount, Currency: body["currency"].(string), Receipt: body["receipt"].(string),
			})
		case strings.HasPrefix(r.URL.Path, "/payments/") && strings.HasSuffix(r.URL.Path, "/refund"):
			paymentID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/payments/"), "/refund")
			_ = json.NewEncoder(w).Encode(payment.Refund{ID: "rfnd_stub", PaymentID: paymentID, Amount: 70800, Currency: "INR", Status: "processed"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(stub.Close)
	return stub
}

// --- Environment ---

type testEnv struct {
	handler    http.Handler
	issuer     *auth.Issuer
	orders     *memoryOrders
	users      *MockUserService
	products   *MockProductService
	categories *MockCategoryService
	razorpay   *razorpayStub
	metrics    *metrics.Registry
}

func lampProduct() *product.Product {
	return &product.Product{
		ID: "p-lamp", Name: "Lamp", Price: decimal.NewFromInt(300),
		SellerID: sellerA.UserID, Stock: 10, Images: []string{"lamp.png"}, IsActive: true,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		issuer:     auth.NewIssuer(testJWTSecret),
		orders:     newMemoryOrders(),
		users:      new(MockUserService),
		products:   new(MockProductService),
		categories: new(MockCategoryService),
		razorpay:   newRazorpayStub(t),
		metrics:    metrics.NewRegistry(),
	}

	gateway := payment.NewRazorpayGateway(payment.RazorpayConfig{
		KeyID:     testKeyID,
		KeySecret: testKeySecret,
		BaseURL:   env.razorpay.URL,
	}, env.metrics)

	catalog := staticCatalog{"p-lamp": lampProduct()}
	orderSvc := order.NewService(env.orders, catalog, gateway, nil, order.DefaultPricingPolicy(), env.metrics)

	env.handler = NewRouter(Handlers{
		Auth:       NewAuthHandler(env.users, false),
		Payment:    NewPaymentHandler(gateway, ""),
		Orders:     NewOrderHandler(orderSvc),
		Products:   NewProductHandler(env.products),
		Categories: NewCategoryHandler(env.categories),
		System:     &SystemHandler{Registry: env.metrics},
	}, RouterConfig{
		Tokens:        env.issuer,
		AllowedOrigin: "http://localhost:3000",
	})

	return env
}

// do sends a JSON request as p; a zero principal sends no credential.
func (env *testEnv) do(t *testing.T, method, path string, p auth.Principal, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if p.UserID != "" {
		token, err := env.issuer.Generate(p)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var shippingAddress = map[string]string{
	"street": "1 MG Road", "city": "Pune", "state": "MH",
	"zipCode": "411001", "country": "IN", "phone": "9999999999",
}
