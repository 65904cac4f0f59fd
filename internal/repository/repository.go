package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
)

// CartRepository stores the persistent cart of a signed-in user.
type CartRepository interface {
	// Get returns the user's cart in insertion order. A user with no cart
	// rows gets an empty cart, not an error.
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	// Replace atomically swaps the entire cart contents for the given lines.
	Replace(ctx context.Context, userID string, lines []domain.CartLine) error
	// DeleteLine removes one product line from the cart.
	DeleteLine(ctx context.Context, userID string, productID int64) error
	// Clear removes all lines from the cart.
	Clear(ctx context.Context, userID string) error
}

// GuestCartRepository stores anonymous session carts.
type GuestCartRepository interface {
	// Get returns the session cart, or ErrNotFound if none exists.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// ProductRepository reads the product catalog.
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// GetByIDs returns the products matching the given IDs. Missing IDs are
	// simply absent from the result.
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
}

// StockReserver atomically decrements stock for a set of lines inside the
// caller's transaction. Either every line is covered and decremented, or the
// reservation fails and nothing is changed.
type StockReserver interface {
	Reserve(ctx context.Context, tx pgx.Tx, lines []domain.CartLine) error
}

// StockRepository is the stock ledger: reservation plus administrative reads
// and writes of stock levels.
type StockRepository interface {
	StockReserver
	GetLevel(ctx context.Context, productID int64) (int, error)
	SetLevel(ctx context.Context, productID int64, quantity int) error
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID  string
	Page    int
	PerPage int
}

// OrderRepository persists confirmed orders.
type OrderRepository interface {
	// CreateFromPayment inserts the order, its items, and the matching stock
	// decrement in one transaction. It returns false without side effects if
	// an order for the same payment session already exists.
	CreateFromPayment(ctx context.Context, order *domain.Order) (created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)
}
