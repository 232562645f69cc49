package inventory

import (
	"context"
	"fmt"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/postgres"
)

// Repository is the storage behind the ledger. Every method runs on the
// DBTX it is given, usually the caller's transaction.
type Repository interface {
	GetProductForUpdate(ctx context.Context, q postgres.DBTX, productID int64) (*StockLevel, error)
	DecreaseStock(ctx context.Context, q postgres.DBTX, productID int64, qty int) error
	IncreaseStock(ctx context.Context, q postgres.DBTX, productID int64, qty int) (bool, error)
	InsertMovement(ctx context.Context, q postgres.DBTX, m *Movement) error
	ListMovements(ctx context.Context, q postgres.DBTX, productID int64, limit int) ([]Movement, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct{}

func NewRepository() *PostgresRepository {
	return &PostgresRepository{}
}

// GetProductForUpdate reads the product's stock with a pessimistic lock
// (SELECT ... FOR UPDATE). The row stays locked until the transaction ends.
func (r *PostgresRepository) GetProductForUpdate(ctx context.Context, q postgres.DBTX, productID int64) (*StockLevel, error) {
	var level StockLevel
	err := q.QueryRow(ctx, `
		SELECT id, stock_quantity
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, productID).Scan(&level.ProductID, &level.Stock)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperr.NotFound("Product not found.")
		}
		return nil, fmt.Errorf("failed to get product with lock: %w", err)
	}
	return &level, nil
}

func (r *PostgresRepository) DecreaseStock(ctx context.Context, q postgres.DBTX, productID int64, qty int) error {
	_, err := q.Exec(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $1,
		    updated_at = NOW()
		WHERE id = $2
	`, qty, productID)
	if err != nil {
		return fmt.Errorf("failed to decrease stock: %w", err)
	}
	return nil
}

// IncreaseStock reports false when the product row no longer exists.
func (r *PostgresRepository) IncreaseStock(ctx context.Context, q postgres.DBTX, productID int64, qty int) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $1,
		    updated_at = NOW()
		WHERE id = $2
	`, qty, productID)
	if err != nil {
		return false, fmt.Errorf("failed to increase stock: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) InsertMovement(ctx context.Context, q postgres.DBTX, m *Movement) error {
	_, err := q.Exec(ctx, `
		INSERT INTO inventory_movements (id, product_id, user_id, change_quantity, movement_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.ProductID, m.UserID, m.ChangeQuantity, string(m.MovementType), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert movement record: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListMovements(ctx context.Context, q postgres.DBTX, productID int64, limit int) ([]Movement, error) {
	rows, err := q.Query(ctx, `
		SELECT id, product_id, COALESCE(user_id, 0), change_quantity, movement_type, created_at
		FROM inventory_movements
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	movements := make([]Movement, 0)
	for rows.Next() {
		var m Movement
		var movementType string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.UserID, &m.ChangeQuantity, &movementType, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		m.MovementType = MovementType(movementType)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
