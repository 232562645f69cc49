package catalog

import (
	"context"
	"fmt"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/postgres"
)

// Repository reads products.
type Repository interface {
	List(ctx context.Context, q postgres.DBTX, f Filter) ([]Product, error)
	Get(ctx context.Context, q postgres.DBTX, id int64) (*Product, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct{}

func NewRepository() *PostgresRepository {
	return &PostgresRepository{}
}

const productColumns = `id, name, description, category, price, image_url, stock_quantity, updated_at`

// List returns products ordered by id, optionally filtered by category and a
// case-insensitive name search.
func (r *PostgresRepository) List(ctx context.Context, q postgres.DBTX, f Filter) ([]Product, error) {
	f = f.Normalize()

	rows, err := q.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY id
		LIMIT $3 OFFSET $4
	`, f.Category, f.Search, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.ImageURL, &p.StockQuantity, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Get returns one product or NotFound.
func (r *PostgresRepository) Get(ctx context.Context, q postgres.DBTX, id int64) (*Product, error) {
	var p Product
	err := q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.ImageURL, &p.StockQuantity, &p.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperr.NotFound("Product not found.")
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &p, nil
}
