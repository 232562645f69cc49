package orders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/storefront/internal/postgres"
)

// Repository is the storage behind the order ledger.
type Repository interface {
	InsertOrder(ctx context.Context, q postgres.DBTX, o *Order) (int64, error)
	InsertItems(ctx context.Context, q postgres.DBTX, orderID int64, items []Item) error
	List(ctx context.Context, q postgres.DBTX) ([]Summary, error)
	ListByUser(ctx context.Context, q postgres.DBTX, userID int64) ([]Summary, error)
	Exists(ctx context.Context, q postgres.DBTX, orderID int64) (bool, error)
	Items(ctx context.Context, q postgres.DBTX, orderID int64) ([]DetailItem, error)
	UpdateStatus(ctx context.Context, q postgres.DBTX, orderID int64, status Status) (bool, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct{}

func NewRepository() *PostgresRepository {
	return &PostgresRepository{}
}

// InsertOrder creates the order row and returns its id.
func (r *PostgresRepository) InsertOrder(ctx context.Context, q postgres.DBTX, o *Order) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO orders (user_id, shipping_address_id, order_date, total_amount, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $3)
		RETURNING id
	`, o.UserID, o.ShippingAddressID, o.OrderDate, o.TotalAmount, string(o.Status)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	o.ID = id
	return id, nil
}

// InsertItems bulk-loads the order lines with COPY.
func (r *PostgresRepository) InsertItems(ctx context.Context, q postgres.DBTX, orderID int64, items []Item) error {
	_, err := q.CopyFrom(ctx,
		pgx.Identifier{"order_items"},
		[]string{"order_id", "product_id", "quantity", "price_at_purchase"},
		pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
			return []any{orderID, items[i].ProductID, items[i].Quantity, postgres.Numeric(items[i].PriceAtPurchase)}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

const summaryQuery = `
	SELECT o.id, o.order_date, o.total_amount, o.status, u.username,
	       (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id)
	FROM orders o
	JOIN users u ON u.id = o.user_id
`

// List returns every order, newest first.
func (r *PostgresRepository) List(ctx context.Context, q postgres.DBTX) ([]Summary, error) {
	return r.querySummaries(ctx, q, summaryQuery+` ORDER BY o.order_date DESC, o.id DESC`)
}

// ListByUser returns one user's orders, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, q postgres.DBTX, userID int64) ([]Summary, error) {
	return r.querySummaries(ctx, q, summaryQuery+` WHERE o.user_id = $1 ORDER BY o.order_date DESC, o.id DESC`, userID)
}

func (r *PostgresRepository) querySummaries(ctx context.Context, q postgres.DBTX, query string, args ...any) ([]Summary, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var s Summary
		var status string
		if err := rows.Scan(&s.OrderID, &s.OrderDate, &s.TotalAmount, &status, &s.UserName, &s.TotalItems); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		s.Status = Status(status)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *PostgresRepository) Exists(ctx context.Context, q postgres.DBTX, orderID int64) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check order existence: %w", err)
	}
	return exists, nil
}

// Items returns the lines of an order in insertion order.
func (r *PostgresRepository) Items(ctx context.Context, q postgres.DBTX, orderID int64) ([]DetailItem, error) {
	rows, err := q.Query(ctx, `
		SELECT p.name, p.image_url, oi.quantity, oi.price_at_purchase
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order details: %w", err)
	}
	defer rows.Close()

	items := make([]DetailItem, 0)
	for rows.Next() {
		var it DetailItem
		if err := rows.Scan(&it.ProductName, &it.ImageURL, &it.Quantity, &it.PriceAtPurchase); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateStatus reports false when no order has orderID.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, q postgres.DBTX, orderID int64, status Status) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    updated_at = NOW()
		WHERE id = $2
	`, string(status), orderID)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
