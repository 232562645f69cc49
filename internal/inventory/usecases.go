package inventory

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/postgres"
)

const defaultMovementsLimit = 50

// Ledger owns stock counts and their movement journal. Reserve and Release
// never open a transaction: they run inside the one the caller hands them.
type Ledger struct {
	repository Repository
	db         postgres.DBTX
	tracer     trace.Tracer
	log        *zap.Logger
}

// NewLedger creates a Ledger. db serves the reads made outside transactions.
func NewLedger(repository Repository, db postgres.DBTX, tracer trace.Tracer, log *zap.Logger) *Ledger {
	return &Ledger{
		repository: repository,
		db:         db,
		tracer:     tracer,
		log:        log,
	}
}

// Reserve takes qty units of productID out of stock on behalf of userID.
// The product row is locked first, so concurrent reservations of the same
// product serialize and the check below cannot be raced.
func (l *Ledger) Reserve(ctx context.Context, q postgres.DBTX, productID int64, qty int, userID int64) error {
	ctx, span := l.tracer.Start(ctx, "inventory.reserve")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("product_id", productID),
		attribute.Int64("user_id", userID),
		attribute.Int("quantity", qty),
	)

	if qty <= 0 {
		return apperr.ErrInvalidQuantity
	}

	level, err := l.repository.GetProductForUpdate(ctx, q, productID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if level.Stock < qty {
		l.log.Debug("Reservation refused",
			zap.Int64("product_id", productID),
			zap.Int("requested", qty),
			zap.Int("available", level.Stock),
		)
		return apperr.New(apperr.KindInsufficientStock,
			fmt.Sprintf("Insufficient stock. Only %d available.", level.Stock), nil)
	}

	if err := l.repository.DecreaseStock(ctx, q, productID, qty); err != nil {
		span.RecordError(err)
		return err
	}

	if err := l.repository.InsertMovement(ctx, q, NewMovement(productID, userID, qty, MovementReserved)); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

// Release puts qty units of productID back into stock. There is no upper
// bound: whatever was reserved is returned as is.
func (l *Ledger) Release(ctx context.Context, q postgres.DBTX, productID int64, qty int, userID int64) error {
	ctx, span := l.tracer.Start(ctx, "inventory.release")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("product_id", productID),
		attribute.Int64("user_id", userID),
		attribute.Int("quantity", qty),
	)

	if qty <= 0 {
		return apperr.ErrInvalidQuantity
	}

	found, err := l.repository.IncreaseStock(ctx, q, productID, qty)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !found {
		return apperr.NotFound("Product not found.")
	}

	if err := l.repository.InsertMovement(ctx, q, NewMovement(productID, userID, qty, MovementReleased)); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

// Movements returns the newest journal entries for productID.
func (l *Ledger) Movements(ctx context.Context, productID int64, limit int) ([]Movement, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultMovementsLimit
	}
	return l.repository.ListMovements(ctx, l.db, productID, limit)
}
