package users

import (
	"context"
	"fmt"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/postgres"
)

type Repository interface {
	Create(ctx context.Context, q postgres.DBTX, u *User) (int64, error)
	GetByEmail(ctx context.Context, q postgres.DBTX, email string) (*User, error)
	GetByID(ctx context.Context, q postgres.DBTX, id int64) (*User, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct{}

func NewRepository() *PostgresRepository {
	return &PostgresRepository{}
}

// Create inserts u and returns its id; a taken username or email is a Conflict.
func (r *PostgresRepository) Create(ctx context.Context, q postgres.DBTX, u *User) (int64, error) {
	err := q.QueryRow(ctx, `
		INSERT INTO users (username, email, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, u.Username, u.Email, u.PasswordHash, string(u.Role)).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return 0, apperr.New(apperr.KindConflict, "Username or email already exists. Please choose another.", err)
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return u.ID, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, q postgres.DBTX, email string) (*User, error) {
	return r.getOne(ctx, q, `WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, q postgres.DBTX, id int64) (*User, error) {
	return r.getOne(ctx, q, `WHERE id = $1`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, q postgres.DBTX, where string, arg any) (*User, error) {
	var u User
	var role string
	err := q.QueryRow(ctx, `
		SELECT id, username, email, password, role, created_at
		FROM users `+where, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperr.NotFound("User not found.")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	u.Role = Role(role)
	return &u, nil
}
