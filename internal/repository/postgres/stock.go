package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/pkg/database"
	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

// StockRepository implements the stock ledger on the products table.
type StockRepository struct {
	pool database.DBTX
}

// NewStockRepository creates a new PostgreSQL-backed stock ledger.
func NewStockRepository(pool database.DBTX) *StockRepository {
	return &StockRepository{pool: pool}
}

// Reserve decrements stock for every line inside the caller's transaction.
// Rows are locked in ascending product-id order, which both avoids deadlocks
// between concurrent reservations and makes the reported violator
// deterministic: the lowest-id product that cannot be covered. Any failure
// leaves the transaction poisoned; the caller must roll back.
func (r *StockRepository) Reserve(ctx context.Context, tx pgx.Tx, lines []domain.CartLine) error {
	if len(lines) == 0 {
		return apperrors.InvalidInput("reservation requires at least one line")
	}

	ordered := make([]domain.CartLine, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ProductID < ordered[j].ProductID
	})

	for _, line := range ordered {
		if line.Quantity <= 0 {
			return apperrors.InvalidInput(fmt.Sprintf("product %d: quantity must be positive", line.ProductID))
		}

		var available int
		err := tx.QueryRow(ctx,
			`SELECT quantity FROM products WHERE id = $1 FOR UPDATE`,
			line.ProductID,
		).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("product", fmt.Sprintf("%d", line.ProductID))
			}
			return fmt.Errorf("lock stock row for product %d: %w", line.ProductID, err)
		}

		if available < line.Quantity {
			return apperrors.InsufficientStock(line.ProductID, line.Quantity, available)
		}

		_, err = tx.Exec(ctx,
			`UPDATE products SET quantity = quantity - $2, updated_at = NOW() WHERE id = $1`,
			line.ProductID, line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement stock for product %d: %w", line.ProductID, err)
		}
	}

	return nil
}

// GetLevel returns the current stock level for a product.
func (r *StockRepository) GetLevel(ctx context.Context, productID int64) (int, error) {
	var quantity int
	err := r.pool.QueryRow(ctx,
		`SELECT quantity FROM products WHERE id = $1`,
		productID,
	).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFound("product", fmt.Sprintf("%d", productID))
		}
		return 0, fmt.Errorf("read stock level for product %d: %w", productID, err)
	}
	return quantity, nil
}

// SetLevel sets the absolute stock level for a product. Used for stock
// initialization and manual adjustment, never by the reservation path.
func (r *StockRepository) SetLevel(ctx context.Context, productID int64, quantity int) error {
	if quantity < 0 {
		return apperrors.InvalidInput("stock level cannot be negative")
	}

	ct, err := r.pool.Exec(ctx,
		`UPDATE products SET quantity = $2, updated_at = NOW() WHERE id = $1`,
		productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("set stock level for product %d: %w", productID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", fmt.Sprintf("%d", productID))
	}
	return nil
}
