package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	LogLevel  string
	LogFormat string

	OtelEnabled  bool
	OTLPEndpoint string

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string

	AuthJWTSecret string

	Billing BillingConfig
}

// BillingConfig carries everything needed to talk to the payment provider
// and to resolve catalog price ids for the configured environment.
type BillingConfig struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration

	CheckoutSuccessURL string
	CheckoutCancelURL  string
	BillingPortalURL   string

	// Price id overrides per plan/interval. Empty values fall back to the
	// catalog defaults, which only make sense against a test-mode provider.
	PriceStarterMonthly    string
	PriceStarterYearly     string
	PriceProMonthly        string
	PriceProYearly         string
	PriceEnterpriseMonthly string
	PriceEnterpriseYearly  string

	CheckoutRatePerMinute int
	CheckoutBurst         int
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "ventra"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		OtelEnabled:  getenvBool("OTEL_ENABLED", false),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:     getenv("DATABASE_TYPE", "postgres"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "ventra"),
		DBUser:     getenv("DATABASE_USER", "postgres"),
		DBPassword: getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),

		Billing: BillingConfig{
			APIKey:         strings.TrimSpace(getenv("BILLING_API_KEY", "")),
			BaseURL:        strings.TrimRight(getenv("BILLING_BASE_URL", "https://api.stripe.com"), "/"),
			RequestTimeout: getenvDuration("BILLING_REQUEST_TIMEOUT", 15*time.Second),

			CheckoutSuccessURL: getenv("BILLING_CHECKOUT_SUCCESS_URL", "https://app.ventra.io/billing?checkout=success"),
			CheckoutCancelURL:  getenv("BILLING_CHECKOUT_CANCEL_URL", "https://app.ventra.io/billing?checkout=canceled"),
			BillingPortalURL:   getenv("BILLING_PORTAL_URL", "https://app.ventra.io/billing"),

			PriceStarterMonthly:    strings.TrimSpace(getenv("BILLING_PRICE_STARTER_MONTHLY", "")),
			PriceStarterYearly:     strings.TrimSpace(getenv("BILLING_PRICE_STARTER_YEARLY", "")),
			PriceProMonthly:        strings.TrimSpace(getenv("BILLING_PRICE_PRO_MONTHLY", "")),
			PriceProYearly:         strings.TrimSpace(getenv("BILLING_PRICE_PRO_YEARLY", "")),
			PriceEnterpriseMonthly: strings.TrimSpace(getenv("BILLING_PRICE_ENTERPRISE_MONTHLY", "")),
			PriceEnterpriseYearly:  strings.TrimSpace(getenv("BILLING_PRICE_ENTERPRISE_YEARLY", "")),

			CheckoutRatePerMinute: getenvInt("BILLING_CHECKOUT_RATE_PER_MINUTE", 10),
			CheckoutBurst:         getenvInt("BILLING_CHECKOUT_BURST", 5),
		},
	}
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
