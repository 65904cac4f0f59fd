package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/pkg/database"
)

// CartRepository implements repository.CartRepository using PostgreSQL.
// Lines are kept in insertion order via the added_at column.
type CartRepository struct {
	pool database.DBTX
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool database.DBTX) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns the user's cart with lines enriched from the catalog, in the
// order they were added. A user without cart rows gets an empty cart.
func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ci.product_id, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.added_at, ci.product_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	cart := &domain.Cart{UserID: userID, Lines: []domain.CartLine{}}
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Name, &line.Price, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}

	return cart, nil
}

// Replace atomically swaps the entire cart contents.
func (r *CartRepository) Replace(ctx context.Context, userID string, lines []domain.CartLine) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	now := time.Now().UTC()
	for i, line := range lines {
		// Spread added_at so insertion order survives the swap.
		_, err := tx.Exec(ctx, `
			INSERT INTO cart_items (user_id, product_id, quantity, added_at)
			VALUES ($1, $2, $3, $4)`,
			userID, line.ProductID, line.Quantity, now.Add(time.Duration(i)*time.Microsecond),
		)
		if err != nil {
			return fmt.Errorf("insert cart line for product %d: %w", line.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// DeleteLine removes one product line from the cart.
func (r *CartRepository) DeleteLine(ctx context.Context, userID string, productID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("delete cart line for product %d: %w", productID, err)
	}
	return nil
}

// Clear removes all lines from the user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
