package orders

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/events"
	"github.com/matheusmosca/storefront/internal/postgres"
)

// UseCase is the read and fulfillment side of the order ledger. Orders are
// created by checkout inside its own transaction.
type UseCase struct {
	repository Repository
	db         postgres.DBTX
	publisher  events.Publisher
	tracer     trace.Tracer
	log        *zap.Logger
}

func NewUseCase(repository Repository, db postgres.DBTX, publisher events.Publisher, tracer trace.Tracer, log *zap.Logger) *UseCase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &UseCase{
		repository: repository,
		db:         db,
		publisher:  publisher,
		tracer:     tracer,
		log:        log,
	}
}

// ListOrders returns every order with its buyer and item count, newest first.
func (uc *UseCase) ListOrders(ctx context.Context) ([]Summary, error) {
	ctx, span := uc.tracer.Start(ctx, "orders.list")
	defer span.End()
	return uc.repository.List(ctx, uc.db)
}

// ListUserOrders returns the order history of one user.
func (uc *UseCase) ListUserOrders(ctx context.Context, userID int64) ([]Summary, error) {
	ctx, span := uc.tracer.Start(ctx, "orders.list_user")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))
	return uc.repository.ListByUser(ctx, uc.db, userID)
}

// GetOrderDetail returns the lines of orderID, or NotFound.
func (uc *UseCase) GetOrderDetail(ctx context.Context, orderID int64) ([]DetailItem, error) {
	ctx, span := uc.tracer.Start(ctx, "orders.detail")
	defer span.End()
	span.SetAttributes(attribute.Int64("order_id", orderID))

	exists, err := uc.repository.Exists(ctx, uc.db, orderID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("Order not found.")
	}
	return uc.repository.Items(ctx, uc.db, orderID)
}

// UpdateStatus moves orderID to status. The status is checked before any
// database access.
func (uc *UseCase) UpdateStatus(ctx context.Context, orderID int64, status Status) error {
	ctx, span := uc.tracer.Start(ctx, "orders.update_status")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("status", string(status)),
	)

	if !status.Valid() {
		return apperr.New(apperr.KindInvalidStatus, "Invalid status provided.", nil)
	}

	found, err := uc.repository.UpdateStatus(ctx, uc.db, orderID, status)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !found {
		return apperr.NotFound("Order not found.")
	}

	uc.log.Info("✅ Order status updated", zap.Int64("order_id", orderID), zap.String("status", string(status)))

	event := events.Event{
		Type:       events.TypeOrderStatusChanged,
		OrderID:    orderID,
		Status:     string(status),
		OccurredAt: time.Now().UTC(),
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.log.Warn("Failed to publish order event", zap.Int64("order_id", orderID), zap.Error(err))
	}
	return nil
}
