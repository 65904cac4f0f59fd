package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/internal/gateway"
	"github.com/AkshathTaduri/booktownsolutions/internal/repository"
	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

// Outcome classifies how a webhook delivery was handled.
type Outcome string

const (
	// OutcomeSkipped: authentic event of a type we do not handle.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFulfilled: stock decremented and order recorded.
	OutcomeFulfilled Outcome = "fulfilled"
	// OutcomeAlreadyProcessed: redelivery of a committed payment session.
	OutcomeAlreadyProcessed Outcome = "already_processed"
)

// Result is the outcome of processing one webhook delivery.
type Result struct {
	Outcome Outcome `json:"outcome"`
	OrderID string  `json:"order_id,omitempty"`
}

// WebhookService processes payment-provider webhook deliveries and commits
// confirmed payments as orders.
type WebhookService struct {
	verifier *gateway.SignatureVerifier
	orders   repository.OrderRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	events   EventPublisher
	logger   *slog.Logger

	now func() time.Time
}

// NewWebhookService creates a new webhook processing service.
func NewWebhookService(
	verifier *gateway.SignatureVerifier,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	events EventPublisher,
	logger *slog.Logger,
) *WebhookService {
	return &WebhookService{
		verifier: verifier,
		orders:   orders,
		products: products,
		carts:    carts,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// Process handles one webhook delivery. The payload must be the exact raw
// request bytes; the signature is verified over them before anything is
// parsed. Rejections (bad signature, malformed payload, bad metadata,
// insufficient stock) surface as errors and leave no state behind. The happy
// path commits order plus stock decrement atomically; a redelivered event
// reports AlreadyProcessed without touching stock again.
func (s *WebhookService) Process(ctx context.Context, payload []byte, signatureHeader string) (*Result, error) {
	if err := s.verifier.Verify(payload, signatureHeader); err != nil {
		return nil, err
	}

	ev, err := gateway.ParseWebhookEvent(payload)
	if err != nil {
		return nil, err
	}

	if ev.Type != gateway.EventTypeCheckoutCompleted {
		s.logger.DebugContext(ctx, "ignoring webhook event",
			slog.String("event_id", ev.ID),
			slog.String("event_type", ev.Type),
		)
		return &Result{Outcome: OutcomeSkipped}, nil
	}

	session := ev.Data.Object
	if session.ID == "" {
		return nil, apperrors.InvalidMetadata("completed event missing session id")
	}

	meta, err := gateway.DecodeSessionMetadata(session.Metadata)
	if err != nil {
		return nil, err
	}

	order, err := s.buildOrder(ctx, session.ID, meta)
	if err != nil {
		return nil, err
	}

	created, err := s.orders.CreateFromPayment(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("commit order for session %s: %w", session.ID, err)
	}
	if !created {
		s.logger.InfoContext(ctx, "webhook redelivery ignored",
			slog.String("event_id", ev.ID),
			slog.String("payment_session_id", session.ID),
		)
		return &Result{Outcome: OutcomeAlreadyProcessed}, nil
	}

	// The purchase is committed; clearing the cart is cleanup only.
	if err := s.carts.Clear(ctx, order.UserID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear cart after order",
			slog.String("user_id", order.UserID),
			slog.String("error", err.Error()),
		)
	}

	s.events.OrderCreated(ctx, order)

	s.logger.InfoContext(ctx, "order committed",
		slog.String("order_id", order.ID),
		slog.String("payment_session_id", session.ID),
		slog.String("user_id", order.UserID),
		slog.Int64("total_amount", order.TotalAmount),
	)

	return &Result{Outcome: OutcomeFulfilled, OrderID: order.ID}, nil
}

// buildOrder snapshots catalog names and prices for the metadata lines. A
// product that no longer exists fails the commit; the event can be retried
// or investigated, nothing has been written.
func (s *WebhookService) buildOrder(ctx context.Context, sessionID string, meta *gateway.SessionMetadata) (*domain.Order, error) {
	products, err := s.products.GetByIDs(ctx, meta.ProductIDs)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	catalog := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	items := make([]domain.OrderItem, len(meta.ProductIDs))
	var total int64
	for i, id := range meta.ProductIDs {
		p, ok := catalog[id]
		if !ok {
			return nil, apperrors.NotFound("product", fmt.Sprintf("%d", id))
		}
		qty := meta.Quantities[i]
		items[i] = domain.OrderItem{
			ProductID: id,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
		}
		total += p.Price * int64(qty)
	}

	return &domain.Order{
		ID:               uuid.New().String(),
		UserID:           meta.UserID,
		Status:           domain.OrderStatusPaid,
		TotalAmount:      total,
		ShippingAddress:  meta.ShippingAddress,
		PaymentSessionID: sessionID,
		Items:            items,
		CreatedAt:        s.now().UTC(),
	}, nil
}
