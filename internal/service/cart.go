package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/internal/event"
	"github.com/AkshathTaduri/booktownsolutions/internal/repository"
	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

// Reconcile outcomes published on cart.synced events.
const (
	reconcileServerKept  = "server_kept"
	reconcileGuestPushed = "guest_pushed"
	reconcileBothEmpty   = "both_empty"
)

// CartService manages user carts, guest session carts, and the login-time
// reconciliation between them.
type CartService struct {
	carts      repository.CartRepository
	guestCarts repository.GuestCartRepository
	products   repository.ProductRepository
	events     EventPublisher
	logger     *slog.Logger

	// Serializes concurrent reconciles for the same user.
	reconciling *keyedMutex
}

// NewCartService creates a new cart service.
func NewCartService(
	carts repository.CartRepository,
	guestCarts repository.GuestCartRepository,
	products repository.ProductRepository,
	events EventPublisher,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		carts:       carts,
		guestCarts:  guestCarts,
		products:    products,
		events:      events,
		logger:      logger,
		reconciling: newKeyedMutex(),
	}
}

// Get returns the user's cart.
func (s *CartService) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	return s.carts.Get(ctx, userID)
}

// Put replaces the user's cart with the given lines. Duplicate product lines
// are merged and non-positive quantities dropped before anything is stored.
// Every remaining line must be covered by current stock; the first shortfall
// (lowest product id) fails the whole call and leaves the cart unchanged.
func (s *CartService) Put(ctx context.Context, userID string, lines []domain.CartLine) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	cart := &domain.Cart{UserID: userID, Lines: lines}
	cart.Normalize()

	if !cart.IsEmpty() {
		if _, err := s.checkAvailability(ctx, cart.Lines); err != nil {
			return nil, err
		}
	}

	if err := s.carts.Replace(ctx, userID, cart.Lines); err != nil {
		return nil, fmt.Errorf("replace cart: %w", err)
	}

	return s.carts.Get(ctx, userID)
}

// RemoveLine removes one product from the user's cart.
func (s *CartService) RemoveLine(ctx context.Context, userID string, productID int64) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}
	if productID <= 0 {
		return apperrors.InvalidInput("product id must be positive")
	}
	return s.carts.DeleteLine(ctx, userID, productID)
}

// GetGuest returns the guest session cart. A session without a stored cart
// gets an empty one.
func (s *CartService) GetGuest(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	cart, err := s.guestCarts.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &domain.Cart{SessionID: sessionID, Lines: []domain.CartLine{}}, nil
		}
		return nil, err
	}
	return cart, nil
}

// PutGuest replaces the guest session cart. Lines are normalized, checked
// against current stock, and enriched with catalog name and price so the
// storefront can render the cart without extra lookups.
func (s *CartService) PutGuest(ctx context.Context, sessionID string, lines []domain.CartLine) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	cart := &domain.Cart{SessionID: sessionID, Lines: lines, UpdatedAt: time.Now().UTC()}
	cart.Normalize()

	if !cart.IsEmpty() {
		catalog, err := s.checkAvailability(ctx, cart.Lines)
		if err != nil {
			return nil, err
		}
		for i := range cart.Lines {
			p := catalog[cart.Lines[i].ProductID]
			cart.Lines[i].Name = p.Name
			cart.Lines[i].Price = p.Price
		}
	}

	if err := s.guestCarts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save guest cart: %w", err)
	}

	return cart, nil
}

// Reconcile merges a guest session cart with the user's server cart at login
// time, by precedence: a non-empty server cart wins wholesale and the guest
// copy is overwritten to mirror it; only into an empty server cart are the
// guest lines pushed, after which the session copy is dropped. Concurrent
// reconciles for the same user serialize, so
// the loser observes the winner's committed state instead of interleaving.
// Any failure before the single storage write leaves both carts unchanged.
func (s *CartService) Reconcile(ctx context.Context, userID, sessionID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	s.reconciling.Lock(userID)
	defer s.reconciling.Unlock(userID)

	server, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load server cart: %w", err)
	}

	guest := &domain.Cart{SessionID: sessionID, Lines: []domain.CartLine{}}
	if sessionID != "" {
		guest, err = s.GetGuest(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("load guest cart: %w", err)
		}
	}

	outcome := reconcileBothEmpty
	switch {
	case !server.IsEmpty():
		outcome = reconcileServerKept
		if sessionID != "" {
			mirror := &domain.Cart{SessionID: sessionID, Lines: server.Lines, UpdatedAt: time.Now().UTC()}
			if err := s.guestCarts.Save(ctx, mirror); err != nil {
				// The mirror is a display cache; the authoritative cart is
				// already consistent.
				s.logger.WarnContext(ctx, "failed to mirror server cart to guest session",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
			}
		}

	case !guest.IsEmpty():
		guest.Normalize()
		if _, err := s.checkAvailability(ctx, guest.Lines); err != nil {
			return nil, err
		}
		if err := s.carts.Replace(ctx, userID, guest.Lines); err != nil {
			return nil, fmt.Errorf("push guest cart: %w", err)
		}
		outcome = reconcileGuestPushed
		server, err = s.carts.Get(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("reload cart: %w", err)
		}
		// The pushed lines now live server-side; the session copy is stale.
		if err := s.guestCarts.Delete(ctx, sessionID); err != nil {
			s.logger.WarnContext(ctx, "failed to drop guest cart after push",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.events.CartSynced(ctx, event.CartSyncedData{
		UserID:    userID,
		SessionID: sessionID,
		LineCount: len(server.Lines),
		ItemCount: server.ItemCount(),
		Outcome:   outcome,
	})

	s.logger.InfoContext(ctx, "cart reconciled",
		slog.String("user_id", userID),
		slog.String("outcome", outcome),
		slog.Int("lines", len(server.Lines)),
	)

	return server, nil
}

// checkAvailability loads the catalog entries for the given lines and checks
// each against current stock. It returns the catalog keyed by product id.
// Lines are checked in ascending product-id order so the reported violator
// is deterministic.
func (s *CartService) checkAvailability(ctx context.Context, lines []domain.CartLine) (map[int64]domain.Product, error) {
	ids := make([]int64, len(lines))
	for i, line := range lines {
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

	ordered := make([]domain.CartLine, len(lines))
	copy(ordered, lines)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].ProductID < ordered[j-1].ProductID; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	for _, line := range ordered {
		p, ok := catalog[line.ProductID]
		if !ok {
			return nil, apperrors.NotFound("product", fmt.Sprintf("%d", line.ProductID))
		}
		if p.Quantity < line.Quantity {
			return nil, apperrors.InsufficientStock(line.ProductID, line.Quantity, p.Quantity)
		}
	}

	return catalog, nil
}
