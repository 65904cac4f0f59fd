package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/internal/event"
	"github.com/AkshathTaduri/booktownsolutions/internal/gateway"
	"github.com/AkshathTaduri/booktownsolutions/internal/repository"
	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
	"github.com/AkshathTaduri/booktownsolutions/pkg/validator"
)

// CheckoutService turns a cart into a hosted payment session. No stock is
// touched here: reservation happens when the payment is confirmed, so an
// abandoned session never strands inventory.
type CheckoutService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	gateway  gateway.PaymentGateway
	events   EventPublisher
	logger   *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	gw gateway.PaymentGateway,
	events EventPublisher,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		products: products,
		gateway:  gw,
		events:   events,
		logger:   logger,
	}
}

// CreateSessionInput is the input for creating a checkout session.
type CreateSessionInput struct {
	UserID          string
	ShippingAddress domain.Address
}

// CreateSession validates the user's cart and shipping address, then creates
// a hosted checkout session carrying the order intent as metadata. All
// validation happens before the gateway is contacted; a gateway failure
// leaves no local state behind.
func (s *CheckoutService) CreateSession(ctx context.Context, in CreateSessionInput) (*gateway.Session, error) {
	if in.UserID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if err := validator.Validate(in.ShippingAddress); err != nil {
		return nil, apperrors.InvalidInput("shipping address: " + err.Error())
	}

	cart, err := s.carts.Get(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	ids := make([]int64, len(cart.Lines))
	for i, line := range cart.Lines {
		ids[i] = line.ProductID
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	catalog := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	// Line items price from the catalog, never from the submitted cart.
	lineItems := make([]gateway.LineItem, len(cart.Lines))
	quantities := make([]int, len(cart.Lines))
	var total int64
	for i, line := range cart.Lines {
		p, ok := catalog[line.ProductID]
		if !ok {
			return nil, apperrors.NotFound("product", fmt.Sprintf("%d", line.ProductID))
		}
		lineItems[i] = gateway.LineItem{
			Name:       p.Name,
			UnitAmount: p.Price,
			Quantity:   line.Quantity,
		}
		quantities[i] = line.Quantity
		total += p.Price * int64(line.Quantity)
	}

	meta := &gateway.SessionMetadata{
		UserID:          in.UserID,
		ShippingAddress: in.ShippingAddress,
		ProductIDs:      ids,
		Quantities:      quantities,
	}
	metadata, err := meta.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode session metadata: %w", err)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, &gateway.CreateSessionRequest{
		LineItems: lineItems,
		Metadata:  metadata,
	})
	if err != nil {
		return nil, apperrors.GatewayError(err)
	}

	s.events.CheckoutSessionCreated(ctx, event.CheckoutSessionCreatedData{
		SessionID:   session.ID,
		UserID:      in.UserID,
		LineCount:   len(lineItems),
		TotalAmount: total,
	})

	s.logger.InfoContext(ctx, "checkout session created",
		slog.String("session_id", session.ID),
		slog.String("user_id", in.UserID),
		slog.Int("lines", len(lineItems)),
		slog.Int64("total_amount", total),
	)

	return session, nil
}
