package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shophub-be/internal/auth"
	"shophub-be/internal/category"
	"shophub-be/internal/config"
	"shophub-be/internal/db"
	"shophub-be/internal/events"
	"shophub-be/internal/logger"
	"shophub-be/internal/metrics"
	"shophub-be/internal/middleware"
	"shophub-be/internal/order"
	"shophub-be/internal/payment"
	"shophub-be/internal/product"
	"shophub-be/internal/rest"
	"shophub-be/internal/user"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher := events.New(cfg.KafkaBrokers)
	defer publisher.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(ctx, cfg, database, publisher),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newServer wires repositories, services and handlers into the HTTP handler.
// ctx bounds background work such as rate limiter eviction.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB, publisher events.Publisher) http.Handler {
	registry := metrics.NewRegistry()
	issuer := auth.NewIssuer(cfg.JWTSecret)

	gateway := payment.NewRazorpayGateway(payment.RazorpayConfig{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
	}, registry)

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo, issuer)

	productRepo := product.NewRepository(database)
	productSvc := product.NewService(productRepo, registry)

	categoryRepo := category.NewRepository(database)
	categorySvc := category.NewService(categoryRepo)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, productRepo, gateway, publisher, order.PricingPolicy{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShippingFee:       cfg.FlatShippingFee,
		TaxRate:               cfg.TaxRate,
	}, registry)

	return rest.NewRouter(rest.Handlers{
		Auth:       rest.NewAuthHandler(userSvc, cfg.AppEnv == "production"),
		Payment:    rest.NewPaymentHandler(gateway, cfg.DefaultCurrency),
		Orders:     rest.NewOrderHandler(orderSvc),
		Products:   rest.NewProductHandler(productSvc),
		Categories: rest.NewCategoryHandler(categorySvc),
		System:     &rest.SystemHandler{DB: database, Registry: registry},
	}, rest.RouterConfig{
		Tokens:        issuer,
		Limiter:       middleware.NewRateLimiter(ctx, cfg.InternalServiceKey),
		AllowedOrigin: cfg.FrontendURL,
	})
}
