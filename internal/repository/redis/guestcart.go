package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

const keyPrefix = "guest_cart:"

// GuestCartRepository implements repository.GuestCartRepository using Redis.
// Guest carts are keyed by anonymous session ID and expire after the
// configured TTL.
type GuestCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGuestCartRepository creates a new Redis-backed guest cart repository.
func NewGuestCartRepository(client *redis.Client, ttl time.Duration) *GuestCartRepository {
	return &GuestCartRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a guest cart by session ID.
func (r *GuestCartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	key := keyPrefix + sessionID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("guest cart", sessionID)
		}
		return nil, fmt.Errorf("redis get guest cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal guest cart: %w", err)
	}

	return &cart, nil
}

// Save persists a guest cart with the configured TTL.
func (r *GuestCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	if cart.SessionID == "" {
		return apperrors.InvalidInput("guest cart requires a session id")
	}

	key := keyPrefix + cart.SessionID

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal guest cart: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set guest cart: %w", err)
	}

	return nil
}

// Delete removes a guest cart by session ID.
func (r *GuestCartRepository) Delete(ctx context.Context, sessionID string) error {
	key := keyPrefix + sessionID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del guest cart: %w", err)
	}

	return nil
}
