package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/AkshathTaduri/booktownsolutions/pkg/config"
	"github.com/AkshathTaduri/booktownsolutions/pkg/database"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"booktown"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"booktown_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"booktown"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis (guest carts)
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Guest carts expire after this many hours of inactivity.
	GuestCartTTLHours int `env:"GUEST_CART_TTL_HOURS" envDefault:"168"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Payment gateway. With PAYMENT_GATEWAY=mock the service runs without a
	// provider account; sessions complete only via manually signed webhooks.
	PaymentGateway         string `env:"PAYMENT_GATEWAY" envDefault:"stripe"`
	StripeBaseURL          string `env:"STRIPE_BASE_URL" envDefault:"https://api.stripe.com"`
	StripeAPIKey           string `env:"STRIPE_API_KEY"`
	StripeWebhookSecret    string `env:"STRIPE_WEBHOOK_SECRET"`
	StripeCurrency         string `env:"STRIPE_CURRENCY" envDefault:"usd"`
	CheckoutSuccessURL     string `env:"CHECKOUT_SUCCESS_URL" envDefault:"http://localhost:3000/checkout/success"`
	CheckoutCancelURL      string `env:"CHECKOUT_CANCEL_URL" envDefault:"http://localhost:3000/checkout/cancel"`
	WebhookToleranceSecs   int    `env:"WEBHOOK_SIGNATURE_TOLERANCE_SECONDS" envDefault:"300"`
	WebhookMaxPayloadBytes int64  `env:"WEBHOOK_MAX_PAYLOAD_BYTES" envDefault:"1048576"`

	// Circuit breaker for gateway calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.GuestCartTTLHours < 1 {
		return fmt.Errorf("GUEST_CART_TTL_HOURS must be positive, got %d", c.GuestCartTTLHours)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}

	switch c.PaymentGateway {
	case "mock":
	case "stripe":
		if c.StripeAPIKey == "" {
			return fmt.Errorf("STRIPE_API_KEY is required when PAYMENT_GATEWAY=stripe")
		}
		if _, err := url.ParseRequestURI(c.StripeBaseURL); err != nil {
			return fmt.Errorf("invalid STRIPE_BASE_URL %q: %w", c.StripeBaseURL, err)
		}
	default:
		return fmt.Errorf("unknown PAYMENT_GATEWAY %q (want stripe or mock)", c.PaymentGateway)
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}

	for name, rawURL := range map[string]string{
		"CHECKOUT_SUCCESS_URL": c.CheckoutSuccessURL,
		"CHECKOUT_CANCEL_URL":  c.CheckoutCancelURL,
	} {
		if rawURL == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}

	return nil
}

// Postgres returns the connection pool configuration.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// GuestCartTTL returns the guest cart expiry as a duration.
func (c *Config) GuestCartTTL() time.Duration {
	return time.Duration(c.GuestCartTTLHours) * time.Hour
}

// WebhookTolerance returns the webhook signature timestamp tolerance.
func (c *Config) WebhookTolerance() time.Duration {
	return time.Duration(c.WebhookToleranceSecs) * time.Second
}
