package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

func newTestRepo(t *testing.T, ttl time.Duration) (*GuestCartRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewGuestCartRepository(client, ttl), mr
}

func TestGuestCartRepository_SaveAndGet(t *testing.T) {
	repo, _ := newTestRepo(t, time.Hour)

	cart := &domain.Cart{
		SessionID: "sess-1",
		Lines: []domain.CartLine{
			{ProductID: 1, Name: "Dune", Price: 1500, Quantity: 2},
			{ProductID: 5, Name: "Foundation", Price: 900, Quantity: 1},
		},
		UpdatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(context.Background(), cart))

	got, err := repo.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, cart.Lines, got.Lines)
	assert.Equal(t, cart.UpdatedAt, got.UpdatedAt)
}

func TestGuestCartRepository_GetMissing(t *testing.T) {
	repo, _ := newTestRepo(t, time.Hour)

	_, err := repo.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGuestCartRepository_SaveRequiresSessionID(t *testing.T) {
	repo, _ := newTestRepo(t, time.Hour)

	err := repo.Save(context.Background(), &domain.Cart{Lines: []domain.CartLine{{ProductID: 1, Quantity: 1}}})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestGuestCartRepository_Expiry(t *testing.T) {
	repo, mr := newTestRepo(t, time.Minute)

	require.NoError(t, repo.Save(context.Background(), &domain.Cart{
		SessionID: "sess-1",
		Lines:     []domain.CartLine{{ProductID: 1, Quantity: 1}},
	}))

	mr.FastForward(2 * time.Minute)

	_, err := repo.Get(context.Background(), "sess-1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGuestCartRepository_Delete(t *testing.T) {
	repo, _ := newTestRepo(t, time.Hour)

	require.NoError(t, repo.Save(context.Background(), &domain.Cart{
		SessionID: "sess-1",
		Lines:     []domain.CartLine{{ProductID: 1, Quantity: 1}},
	}))
	require.NoError(t, repo.Delete(context.Background(), "sess-1"))

	_, err := repo.Get(context.Background(), "sess-1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	// Deleting a missing cart is not an error.
	assert.NoError(t, repo.Delete(context.Background(), "sess-1"))
}
