package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	DefaultCurrency   string

	KafkaBrokers       []string
	FrontendURL        string
	InternalServiceKey string

	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRate               decimal.Decimal
}

var (
	defaultFreeShippingThreshold = decimal.NewFromInt(500)
	defaultFlatShippingFee       = decimal.NewFromInt(50)
	defaultTaxRate               = decimal.RequireFromString("0.18")
)

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg, err := FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

// FromEnv reads the configuration from the process environment without
// loading .env and without exiting on failure.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBHost:             os.Getenv("DB_HOST"),
		DBUser:             os.Getenv("DB_USER"),
		DBPassword:         os.Getenv("DB_PASSWORD"),
		DBName:             os.Getenv("DB_NAME"),
		DBPort:             os.Getenv("DB_PORT"),
		AppPort:            getEnv("APP_PORT", "5000"),
		AppEnv:             os.Getenv("APP_ENV"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		RazorpayKeyID:      os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:  os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:    getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
		DefaultCurrency:    getEnv("DEFAULT_CURRENCY", "INR"),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		InternalServiceKey: os.Getenv("INTERNAL_SERVICE_KEY"),
	}

	var err error
	if cfg.FreeShippingThreshold, err = getDecimal("FREE_SHIPPING_THRESHOLD", defaultFreeShippingThreshold); err != nil {
		return nil, err
	}
	if cfg.FlatShippingFee, err = getDecimal("FLAT_SHIPPING_FEE", defaultFlatShippingFee); err != nil {
		return nil, err
	}
	if cfg.TaxRate, err = getDecimal("TAX_RATE", defaultTaxRate); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDecimal(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid %s %q: must not be negative", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
