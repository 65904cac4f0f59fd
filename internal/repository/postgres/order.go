package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/internal/repository"
	"github.com/AkshathTaduri/booktownsolutions/pkg/database"
	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool  database.DBTX
	stock repository.StockReserver
}

// NewOrderRepository creates a new PostgreSQL-backed order repository. The
// stock reserver runs inside the same transaction as the order insert.
func NewOrderRepository(pool database.DBTX, stock repository.StockReserver) *OrderRepository {
	return &OrderRepository{pool: pool, stock: stock}
}

// CreateFromPayment commits a confirmed payment: it inserts the order head
// row keyed by payment session ID, decrements stock for every item, and
// inserts the item snapshots, all in one transaction.
//
// The unique payment_session_id makes redelivered webhooks harmless: when the
// insert conflicts, the method returns (false, nil) and the rolled-back
// transaction leaves stock untouched. An order row therefore never exists
// without its stock decrement, and a given payment session decrements stock
// at most once.
func (r *OrderRepository) CreateFromPayment(ctx context.Context, o *domain.Order) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	shippingJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return false, fmt.Errorf("marshal shipping address: %w", err)
	}

	var insertedID string
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, status, total_amount, shipping_address, payment_session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (payment_session_id) DO NOTHING
		RETURNING id`,
		o.ID,
		o.UserID,
		o.Status,
		o.TotalAmount,
		shippingJSON,
		o.PaymentSessionID,
		o.CreatedAt,
	).Scan(&insertedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// This payment session was already committed.
			return false, nil
		}
		return false, fmt.Errorf("insert order: %w", err)
	}

	lines := make([]domain.CartLine, len(o.Items))
	for i, item := range o.Items {
		lines[i] = domain.CartLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	if err := r.stock.Reserve(ctx, tx, lines); err != nil {
		return false, fmt.Errorf("reserve stock for order %s: %w", o.ID, err)
	}

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)`,
			o.ID,
			item.ProductID,
			item.Name,
			item.Price,
			item.Quantity,
		)
		if err != nil {
			return false, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	return true, nil
}

// GetByID retrieves an order by its ID, eagerly loading its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT
			o.id, o.user_id, o.status, o.total_amount, o.shipping_address,
			o.payment_session_id, o.created_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'product_id', oi.product_id,
						'name', oi.name,
						'price', oi.price,
						'quantity', oi.quantity
					) ORDER BY oi.product_id
				) FILTER (WHERE oi.product_id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.id = $1
		GROUP BY o.id, o.user_id, o.status, o.total_amount, o.shipping_address,
			o.payment_session_id, o.created_at`

	var (
		o            domain.Order
		shippingJSON []byte
		itemsJSON    []byte
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.UserID,
		&o.Status,
		&o.TotalAmount,
		&shippingJSON,
		&o.PaymentSessionID,
		&o.CreatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if err := json.Unmarshal(shippingJSON, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}

	return &o, nil
}

// List returns a user's orders, newest first, with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	query := `
		SELECT id, user_id, status, total_amount, shipping_address, payment_session_id, created_at,
			count(*) OVER() AS total_count
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, filter.UserID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var (
			o            domain.Order
			shippingJSON []byte
		)
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.Status,
			&o.TotalAmount,
			&shippingJSON,
			&o.PaymentSessionID,
			&o.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}

		if err := json.Unmarshal(shippingJSON, &o.ShippingAddress); err != nil {
			return nil, 0, fmt.Errorf("unmarshal shipping address: %w", err)
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	// Batch-load items to avoid one query per order.
	if len(orders) > 0 {
		orderIDs := make([]string, len(orders))
		for i := range orders {
			orderIDs[i] = orders[i].ID
		}

		itemRows, err := r.pool.Query(ctx, `
			SELECT order_id, product_id, name, price, quantity
			FROM order_items
			WHERE order_id = ANY($1)
			ORDER BY product_id`,
			orderIDs,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("batch load order items: %w", err)
		}
		defer itemRows.Close()

		itemsByOrderID := make(map[string][]domain.OrderItem, len(orders))
		for itemRows.Next() {
			var (
				orderID string
				item    domain.OrderItem
			)
			if err := itemRows.Scan(&orderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity); err != nil {
				return nil, 0, fmt.Errorf("scan order item: %w", err)
			}
			itemsByOrderID[orderID] = append(itemsByOrderID[orderID], item)
		}
		if err := itemRows.Err(); err != nil {
			return nil, 0, fmt.Errorf("iterate order item rows: %w", err)
		}

		for i := range orders {
			if items, ok := itemsByOrderID[orders[i].ID]; ok {
				orders[i].Items = items
			} else {
				orders[i].Items = []domain.OrderItem{}
			}
		}
	}

	return orders, totalCount, nil
}
