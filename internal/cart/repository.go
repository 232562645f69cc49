package cart

import (
	"context"
	"fmt"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/postgres"
)

// Repository is the cart_items storage.
type Repository interface {
	Upsert(ctx context.Context, q postgres.DBTX, userID, productID int64, qty int) (int, error)
	Delete(ctx context.Context, q postgres.DBTX, userID, productID int64) (int, error)
	List(ctx context.Context, q postgres.DBTX, userID int64) ([]Line, error)
	ListForUpdate(ctx context.Context, q postgres.DBTX, userID int64) ([]Line, error)
	Clear(ctx context.Context, q postgres.DBTX, userID int64, productIDs []int64) (int64, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct{}

func NewRepository() *PostgresRepository {
	return &PostgresRepository{}
}

// Upsert adds qty to the user's line for productID, creating it if needed,
// and returns the resulting quantity.
func (r *PostgresRepository) Upsert(ctx context.Context, q postgres.DBTX, userID, productID int64, qty int) (int, error) {
	var quantity int
	err := q.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING quantity
	`, userID, productID, qty).Scan(&quantity)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return 0, apperr.NotFound("User not found.")
		}
		return 0, fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return quantity, nil
}

// Delete removes the line and returns the quantity it held at deletion time.
func (r *PostgresRepository) Delete(ctx context.Context, q postgres.DBTX, userID, productID int64) (int, error) {
	var quantity int
	err := q.QueryRow(ctx, `
		DELETE FROM cart_items
		WHERE user_id = $1 AND product_id = $2
		RETURNING quantity
	`, userID, productID).Scan(&quantity)
	if err != nil {
		if postgres.IsNoRows(err) {
			return 0, apperr.NotFound("Item not found in cart.")
		}
		return 0, fmt.Errorf("failed to delete cart item: %w", err)
	}
	return quantity, nil
}

const linesQuery = `
	SELECT p.id, p.name, p.price, p.image_url, ci.quantity
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	WHERE ci.user_id = $1
	ORDER BY ci.created_at, ci.id
`

func (r *PostgresRepository) List(ctx context.Context, q postgres.DBTX, userID int64) ([]Line, error) {
	return r.queryLines(ctx, q, linesQuery, userID)
}

// ListForUpdate is List with the cart rows locked, so a concurrent add or
// remove waits for the checkout holding them.
func (r *PostgresRepository) ListForUpdate(ctx context.Context, q postgres.DBTX, userID int64) ([]Line, error) {
	return r.queryLines(ctx, q, linesQuery+" FOR UPDATE OF ci", userID)
}

func (r *PostgresRepository) queryLines(ctx context.Context, q postgres.DBTX, query string, userID int64) ([]Line, error) {
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart items: %w", err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Price, &l.ImageURL, &l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Clear deletes the user's lines for productIDs. Lines added after the cart
// was loaded are not locked by the caller and must survive.
func (r *PostgresRepository) Clear(ctx context.Context, q postgres.DBTX, userID int64, productIDs []int64) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = ANY($2)`, userID, productIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	return tag.RowsAffected(), nil
}
