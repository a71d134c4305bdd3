package rest

import (
	"net/http"

	"shophub-be/internal/auth"
	"shophub-be/internal/logger"
	"shophub-be/internal/middleware"
	"shophub-be/internal/utils"
)

type Handlers struct {
	Auth       *AuthHandler
	Payment    *PaymentHandler
	Orders     *OrderHandler
	Products   *ProductHandler
	Categories *CategoryHandler
	System     *SystemHandler
}

type RouterConfig struct {
	Tokens        middleware.TokenParser
	Limiter       *middleware.RateLimiter
	AllowedOrigin string
}

// NewRouter registers every route and wraps the mux in the middleware chain
// RequestID -> Logging -> CORS -> Auth -> RateLimit.
func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authed := middleware.RequireAuth
	sellers := middleware.RequireRole(auth.RoleSeller, auth.RoleAdmin)
	admins := middleware.RequireRole(auth.RoleAdmin)

	// ---------- AUTH ----------
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("GET /api/auth/me", authed(h.Auth.Me))

	// ---------- PAYMENT ----------
	mux.HandleFunc("POST /api/payment/create-order", authed(h.Payment.CreateOrder))
	mux.HandleFunc("POST /api/payment/verify", authed(h.Payment.Verify))
	mux.HandleFunc("GET /api/payment/key", h.Payment.Key)
	mux.HandleFunc("POST /api/payment/refund", sellers(h.Payment.Refund))

	// ---------- ORDERS ----------
	mux.HandleFunc("POST /api/orders", authed(h.Orders.Create))
	mux.HandleFunc("POST /api/orders/quote", authed(h.Orders.Quote))
	mux.HandleFunc("GET /api/orders", authed(h.Orders.ListMine))
	mux.HandleFunc("GET /api/orders/seller/my-orders", sellers(h.Orders.ListSeller))
	mux.HandleFunc("GET /api/orders/{id}", authed(h.Orders.Get))
	mux.HandleFunc("PUT /api/orders/{id}", sellers(h.Orders.UpdateStatus))

	// ---------- PRODUCTS ----------
	mux.HandleFunc("POST /api/products", sellers(h.Products.Create))
	mux.HandleFunc("GET /api/products/seller/my-products", sellers(h.Products.ListMine))
	mux.HandleFunc("GET /api/products/{id}", h.Products.Get)
	mux.HandleFunc("PUT /api/products/{id}", sellers(h.Products.Update))
	mux.HandleFunc("DELETE /api/products/{id}", sellers(h.Products.Delete))
	mux.HandleFunc("POST /api/products/{id}/reviews", authed(h.Products.AddReview))

	// ---------- CATEGORIES ----------
	mux.HandleFunc("GET /api/categories", h.Categories.List)
	mux.HandleFunc("POST /api/categories", admins(h.Categories.Create))

	// ---------- SYSTEM ----------
	mux.HandleFunc("GET /api/health", h.System.Health)
	mux.HandleFunc("GET /api/metrics", h.System.Metrics)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONError(w, "Route not found", http.StatusNotFound)
	})

	var handler http.Handler = mux
	if cfg.Limiter != nil {
		handler = cfg.Limiter.Middleware(handler)
	}
	handler = middleware.AuthMiddleware(cfg.Tokens)(handler)
	handler = middleware.CORS(cfg.AllowedOrigin)(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)

	return handler
}
