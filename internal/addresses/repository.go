package addresses

import (
	"context"
	"fmt"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/postgres"
)

// msgDefaultRace answers a write rejected by the one-default-per-user index
// because a concurrent request set another default first.
const msgDefaultRace = "Another default address was set at the same time. Please try again."

type Repository interface {
	List(ctx context.Context, q postgres.DBTX, userID int64) ([]Address, error)
	Insert(ctx context.Context, q postgres.DBTX, a *Address) (int64, error)
	ResetDefault(ctx context.Context, q postgres.DBTX, userID int64) error
	SetDefault(ctx context.Context, q postgres.DBTX, addressID, userID int64) (bool, error)
	BelongsTo(ctx context.Context, q postgres.DBTX, addressID, userID int64) (bool, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct{}

func NewRepository() *PostgresRepository {
	return &PostgresRepository{}
}

// List returns the default address first, then the newest.
func (r *PostgresRepository) List(ctx context.Context, q postgres.DBTX, userID int64) ([]Address, error) {
	rows, err := q.Query(ctx, `
		SELECT id, user_id, address_line_1, address_line_2, city, state_province,
		       zip_postal_code, country, is_default, created_at
		FROM user_addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]Address, 0)
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.AddressLine1, &a.AddressLine2, &a.City, &a.StateProvince,
			&a.ZipPostalCode, &a.Country, &a.IsDefault, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (r *PostgresRepository) Insert(ctx context.Context, q postgres.DBTX, a *Address) (int64, error) {
	err := q.QueryRow(ctx, `
		INSERT INTO user_addresses (user_id, address_line_1, address_line_2, city, state_province,
		                            zip_postal_code, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, a.UserID, a.AddressLine1, a.AddressLine2, a.City, a.StateProvince, a.ZipPostalCode, a.Country, a.IsDefault).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return 0, apperr.New(apperr.KindConflict, msgDefaultRace, err)
		}
		return 0, fmt.Errorf("failed to insert address: %w", err)
	}
	return a.ID, nil
}

func (r *PostgresRepository) ResetDefault(ctx context.Context, q postgres.DBTX, userID int64) error {
	_, err := q.Exec(ctx, `UPDATE user_addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID)
	if err != nil {
		return fmt.Errorf("failed to reset default address: %w", err)
	}
	return nil
}

// SetDefault reports false when the address does not exist or belongs to
// another user.
func (r *PostgresRepository) SetDefault(ctx context.Context, q postgres.DBTX, addressID, userID int64) (bool, error) {
	tag, err := q.Exec(ctx, `UPDATE user_addresses SET is_default = TRUE WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return false, apperr.New(apperr.KindConflict, msgDefaultRace, err)
		}
		return false, fmt.Errorf("failed to set default address: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) BelongsTo(ctx context.Context, q postgres.DBTX, addressID, userID int64) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM user_addresses WHERE id = $1 AND user_id = $2)`, addressID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check address owner: %w", err)
	}
	return ok, nil
}
