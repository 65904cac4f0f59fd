package gateway

import (
	"encoding/json"

	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

// EventTypeCheckoutCompleted is the only webhook event type that commits an
// order. Everything else is acknowledged and ignored.
const EventTypeCheckoutCompleted = "checkout.session.completed"

// WebhookEvent is the provider's event envelope as delivered to the webhook
// endpoint.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSessionObject `json:"object"`
	} `json:"data"`
}

// CheckoutSessionObject is the checkout session embedded in a completed
// checkout event.
type CheckoutSessionObject struct {
	ID          string            `json:"id"`
	AmountTotal int64             `json:"amount_total"`
	Metadata    map[string]string `json:"metadata"`
}

// ParseWebhookEvent decodes the raw webhook payload. Call this only after
// the signature over the same raw bytes has been verified.
func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, apperrors.InvalidInput("malformed webhook payload")
	}
	if event.Type == "" {
		return nil, apperrors.InvalidInput("webhook payload missing event type")
	}
	return &event, nil
}
