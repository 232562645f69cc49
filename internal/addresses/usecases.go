package addresses

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/postgres"
)

type UseCase struct {
	repository Repository
	tx         postgres.Transactor
	db         postgres.DBTX
	tracer     trace.Tracer
	log        *zap.Logger
}

func NewUseCase(repository Repository, tx postgres.Transactor, db postgres.DBTX, tracer trace.Tracer, log *zap.Logger) *UseCase {
	return &UseCase{
		repository: repository,
		tx:         tx,
		db:         db,
		tracer:     tracer,
		log:        log,
	}
}

func (uc *UseCase) List(ctx context.Context, userID int64) ([]Address, error) {
	ctx, span := uc.tracer.Start(ctx, "addresses.list")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))

	if userID <= 0 {
		return nil, apperr.InvalidInput("User ID is required.")
	}
	return uc.repository.List(ctx, uc.db, userID)
}

// Create saves a. When a is the new default, the previous default is cleared
// in the same transaction.
func (uc *UseCase) Create(ctx context.Context, a *Address) (int64, error) {
	ctx, span := uc.tracer.Start(ctx, "addresses.create")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", a.UserID), attribute.Bool("is_default", a.IsDefault))

	if a.UserID <= 0 || strings.TrimSpace(a.AddressLine1) == "" ||
		strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.ZipPostalCode) == "" {
		return 0, apperr.InvalidInput("Missing required address fields.")
	}

	err := uc.tx.WithTx(ctx, func(ctx context.Context, q postgres.DBTX) error {
		if a.IsDefault {
			if err := uc.repository.ResetDefault(ctx, q, a.UserID); err != nil {
				return err
			}
		}
		_, err := uc.repository.Insert(ctx, q, a)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return a.ID, nil
}

// SetDefault makes addressID the user's only default address.
func (uc *UseCase) SetDefault(ctx context.Context, addressID, userID int64) error {
	ctx, span := uc.tracer.Start(ctx, "addresses.set_default")
	defer span.End()
	span.SetAttributes(attribute.Int64("address_id", addressID), attribute.Int64("user_id", userID))

	if userID <= 0 {
		return apperr.InvalidInput("User ID is required.")
	}

	err := uc.tx.WithTx(ctx, func(ctx context.Context, q postgres.DBTX) error {
		if err := uc.repository.ResetDefault(ctx, q, userID); err != nil {
			return err
		}
		found, err := uc.repository.SetDefault(ctx, q, addressID, userID)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("Address not found for this user.")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// BelongsTo reports whether addressID is one of userID's addresses. It runs
// on q so checkout can ask inside its transaction.
func (uc *UseCase) BelongsTo(ctx context.Context, q postgres.DBTX, addressID, userID int64) (bool, error) {
	return uc.repository.BelongsTo(ctx, q, addressID, userID)
}
