package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Load with defaults still needs the secrets that have no safe default.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STRIPE_API_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "stripe", cfg.PaymentGateway)
	assert.Equal(t, 168*time.Hour, cfg.GuestCartTTL())
	assert.Equal(t, 5*time.Minute, cfg.WebhookTolerance())
	assert.Equal(t, "booktown", cfg.Postgres().User)
	assert.Equal(t, "localhost:6379", cfg.Redis().Addr())
}

func TestLoad_MissingStripeKey(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_API_KEY is required")
}

func TestLoad_MockGatewayNeedsNoAPIKey(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY", "mock")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.PaymentGateway)
}

func TestLoad_UnknownGateway(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAYMENT_GATEWAY", "paypal")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown PAYMENT_GATEWAY")
}

func TestLoad_MissingWebhookSecret(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY", "mock")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_WEBHOOK_SECRET is required")
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidOTELSampleRate(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OTEL_SAMPLE_RATE", "2.0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
}

func TestLoad_InvalidSuccessURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CHECKOUT_SUCCESS_URL", "not a url")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHECKOUT_SUCCESS_URL")
}

func TestLoad_CustomGuestCartTTL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GUEST_CART_TTL_HOURS", "24")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.GuestCartTTL())
}
