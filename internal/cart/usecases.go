package cart

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/config"
	"github.com/matheusmosca/storefront/internal/postgres"
)

// Stock is the inventory ledger as the cart sees it.
type Stock interface {
	Reserve(ctx context.Context, q postgres.DBTX, productID int64, qty int, userID int64) error
	Release(ctx context.Context, q postgres.DBTX, productID int64, qty int, userID int64) error
}

// CacheInvalidator drops cached catalog reads of a product.
type CacheInvalidator interface {
	InvalidateProduct(ctx context.Context, productID int64)
}

// UseCase couples the cart to the inventory ledger. In transactional mode
// the stock change and the cart change share one transaction; in independent
// mode each commits on its own and a failure of the second is reported as
// PartialFailure.
type UseCase struct {
	repository Repository
	stock      Stock
	tx         postgres.Transactor
	db         postgres.DBTX
	cache      CacheInvalidator
	coupling   string
	tracer     trace.Tracer
	log        *zap.Logger
}

func NewUseCase(
	repository Repository,
	stock Stock,
	tx postgres.Transactor,
	db postgres.DBTX,
	cache CacheInvalidator,
	coupling string,
	tracer trace.Tracer,
	log *zap.Logger,
) *UseCase {
	if coupling == "" {
		coupling = config.CouplingTransactional
	}
	return &UseCase{
		repository: repository,
		stock:      stock,
		tx:         tx,
		db:         db,
		cache:      cache,
		coupling:   coupling,
		tracer:     tracer,
		log:        log,
	}
}

// AddItem reserves qty units of productID and merges them into the user's
// cart. It reports whether a new cart line was created.
func (uc *UseCase) AddItem(ctx context.Context, userID, productID int64, qty int) (bool, error) {
	ctx, span := uc.tracer.Start(ctx, "cart.add_item")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", productID),
		attribute.Int("quantity", qty),
		attribute.String("coupling", uc.coupling),
	)

	if userID <= 0 || productID <= 0 {
		return false, apperr.InvalidInput("User ID, Product ID, and a valid positive quantity are required.")
	}
	if qty <= 0 {
		return false, apperr.New(apperr.KindInvalidQuantity, "User ID, Product ID, and a valid positive quantity are required.", nil)
	}

	var created bool
	upsert := func(ctx context.Context, q postgres.DBTX) error {
		quantity, err := uc.repository.Upsert(ctx, q, userID, productID, qty)
		if err != nil {
			return err
		}
		created = quantity == qty
		return nil
	}
	reserve := func(ctx context.Context, q postgres.DBTX) error {
		return uc.stock.Reserve(ctx, q, productID, qty, userID)
	}

	if uc.coupling == config.CouplingIndependent {
		if err := uc.tx.WithTx(ctx, reserve); err != nil {
			span.RecordError(err)
			return false, err
		}
		uc.invalidate(ctx, productID)

		if err := uc.tx.WithTx(ctx, upsert); err != nil {
			uc.log.Error("❌ Stock reserved but cart not updated, inventory needs reconciliation",
				zap.Int64("user_id", userID),
				zap.Int64("product_id", productID),
				zap.Int("quantity", qty),
				zap.Error(err),
			)
			span.SetStatus(codes.Error, "partial failure")
			return false, apperr.Partial("Stock was reduced, but the cart could not be updated. Inventory may be inaccurate.", err)
		}
		return created, nil
	}

	err := uc.tx.WithTx(ctx, func(ctx context.Context, q postgres.DBTX) error {
		if err := reserve(ctx, q); err != nil {
			return err
		}
		return upsert(ctx, q)
	})
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	uc.invalidate(ctx, productID)
	uc.log.Debug("Item added to cart",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", qty),
		zap.Bool("created", created),
	)
	return created, nil
}

// RemoveItem deletes the user's line for productID and returns its whole
// quantity to stock.
func (uc *UseCase) RemoveItem(ctx context.Context, userID, productID int64) error {
	ctx, span := uc.tracer.Start(ctx, "cart.remove_item")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", productID),
		attribute.String("coupling", uc.coupling),
	)

	if userID <= 0 || productID <= 0 {
		return apperr.InvalidInput("User ID and Product ID are required.")
	}

	var removed int
	remove := func(ctx context.Context, q postgres.DBTX) error {
		quantity, err := uc.repository.Delete(ctx, q, userID, productID)
		if err != nil {
			return err
		}
		removed = quantity
		return nil
	}
	release := func(ctx context.Context, q postgres.DBTX) error {
		return uc.stock.Release(ctx, q, productID, removed, userID)
	}

	if uc.coupling == config.CouplingIndependent {
		if err := uc.tx.WithTx(ctx, remove); err != nil {
			span.RecordError(err)
			return err
		}

		if err := uc.tx.WithTx(ctx, release); err != nil {
			uc.log.Error("❌ Cart line removed but stock not restored, inventory needs reconciliation",
				zap.Int64("user_id", userID),
				zap.Int64("product_id", productID),
				zap.Int("quantity", removed),
				zap.Error(err),
			)
			span.SetStatus(codes.Error, "partial failure")
			return apperr.Partial("Item removed from cart, but stock restoration failed. Inventory may be inaccurate.", err)
		}
		uc.invalidate(ctx, productID)
		return nil
	}

	err := uc.tx.WithTx(ctx, func(ctx context.Context, q postgres.DBTX) error {
		if err := remove(ctx, q); err != nil {
			return err
		}
		return release(ctx, q)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	uc.invalidate(ctx, productID)
	return nil
}

// List returns the user's cart in insertion order.
func (uc *UseCase) List(ctx context.Context, userID int64) ([]Line, error) {
	ctx, span := uc.tracer.Start(ctx, "cart.list")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))

	if userID <= 0 {
		return nil, apperr.InvalidInput("User ID is required.")
	}
	return uc.repository.List(ctx, uc.db, userID)
}

func (uc *UseCase) invalidate(ctx context.Context, productID int64) {
	if uc.cache != nil {
		uc.cache.InvalidateProduct(ctx, productID)
	}
}
