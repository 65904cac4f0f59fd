// Package event publishes domain events to Kafka. Publishing is best effort:
// failures are logged and never fail the originating request.
package event

import (
	"context"
	"log/slog"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	pkgkafka "github.com/AkshathTaduri/booktownsolutions/pkg/kafka"
	"github.com/AkshathTaduri/booktownsolutions/pkg/logger"
)

const (
	TopicCartEvents     = "cart-events"
	TopicCheckoutEvents = "checkout-events"
	TopicOrderEvents    = "order-events"

	TypeCartSynced             = "cart.synced"
	TypeCheckoutSessionCreated = "checkout.session.created"
	TypeOrderCreated           = "order.created"

	source = "storefront"
)

// Producer publishes storefront domain events.
type Producer struct {
	producer *pkgkafka.Producer
	logger   *slog.Logger
}

// NewProducer creates a new domain event producer.
func NewProducer(producer *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{producer: producer, logger: logger}
}

// CartSyncedData is the payload of a cart.synced event.
type CartSyncedData struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
	LineCount int    `json:"line_count"`
	ItemCount int    `json:"item_count"`
	Outcome   string `json:"outcome"`
}

// CartSynced publishes a cart.synced event after a reconcile.
func (p *Producer) CartSynced(ctx context.Context, data CartSyncedData) {
	p.publish(ctx, TopicCartEvents, TypeCartSynced, data.UserID, "cart", data)
}

// CheckoutSessionCreatedData is the payload of a checkout.session.created event.
type CheckoutSessionCreatedData struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	LineCount   int    `json:"line_count"`
	TotalAmount int64  `json:"total_amount"`
}

// CheckoutSessionCreated publishes a checkout.session.created event.
func (p *Producer) CheckoutSessionCreated(ctx context.Context, data CheckoutSessionCreatedData) {
	p.publish(ctx, TopicCheckoutEvents, TypeCheckoutSessionCreated, data.SessionID, "checkout_session", data)
}

// OrderCreatedData is the payload of an order.created event.
type OrderCreatedData struct {
	OrderID          string `json:"order_id"`
	UserID           string `json:"user_id"`
	PaymentSessionID string `json:"payment_session_id"`
	TotalAmount      int64  `json:"total_amount"`
	ItemCount        int    `json:"item_count"`
}

// OrderCreated publishes an order.created event after a webhook commit.
func (p *Producer) OrderCreated(ctx context.Context, order *domain.Order) {
	itemCount := 0
	for _, item := range order.Items {
		itemCount += item.Quantity
	}
	p.publish(ctx, TopicOrderEvents, TypeOrderCreated, order.ID, "order", OrderCreatedData{
		OrderID:          order.ID,
		UserID:           order.UserID,
		PaymentSessionID: order.PaymentSessionID,
		TotalAmount:      order.TotalAmount,
		ItemCount:        itemCount,
	})
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) {
	ev, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}

	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		ev.WithCorrelationID(id)
	}

	if err := p.producer.Publish(ctx, topic, ev); err != nil {
		// Event delivery is best effort; the write that triggered it has
		// already committed.
		p.logger.WarnContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
	}
}
