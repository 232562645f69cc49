package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/inventory"
	"github.com/matheusmosca/storefront/internal/postgres"
	"github.com/matheusmosca/storefront/internal/storetest"
	"github.com/matheusmosca/storefront/internal/users"
)

func newLedger(store *storetest.Store) *inventory.Ledger {
	return inventory.NewLedger(store.Inventory(), nil, noop.NewTracerProvider().Tracer("test"), zap.NewNop())
}

func TestReserveDecrementsStockAndJournals(t *testing.T) {
	// Arrange
	store := storetest.New()
	userID := store.AddUser("ana", users.RoleUser)
	productID := store.AddProduct("Fern", "10.00", 5)
	ledger := newLedger(store)

	// Act
	err := store.WithTx(context.Background(), func(ctx context.Context, q postgres.DBTX) error {
		return ledger.Reserve(ctx, q, productID, 3, userID)
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, store.Stock(productID))

	movements, err := ledger.Movements(context.Background(), productID, 10)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, inventory.MovementReserved, movements[0].MovementType)
	assert.Equal(t, 3, movements[0].ChangeQuantity)
	assert.Equal(t, userID, movements[0].UserID)
}

func TestReserveInsufficientStock(t *testing.T) {
	store := storetest.New()
	productID := store.AddProduct("Fern", "10.00", 2)
	ledger := newLedger(store)

	err := store.WithTx(context.Background(), func(ctx context.Context, q postgres.DBTX) error {
		return ledger.Reserve(ctx, q, productID, 3, 1)
	})

	require.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.EqualError(t, err, "Insufficient stock. Only 2 available.")
	assert.Equal(t, 2, store.Stock(productID))
	assert.Zero(t, store.MovementCount(productID))
}

func TestReserveValidation(t *testing.T) {
	store := storetest.New()
	productID := store.AddProduct("Fern", "10.00", 5)
	ledger := newLedger(store)
	ctx := context.Background()

	tests := []struct {
		name      string
		productID int64
		qty       int
		want      error
	}{
		{"zero quantity", productID, 0, apperr.ErrInvalidQuantity},
		{"negative quantity", productID, -1, apperr.ErrInvalidQuantity},
		{"unknown product", 9999, 1, apperr.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.Reserve(ctx, nil, tt.productID, tt.qty, 1)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 5, store.Stock(productID))
		})
	}
}

func TestReserveRollsBackWhenJournalFails(t *testing.T) {
	store := storetest.New()
	productID := store.AddProduct("Fern", "10.00", 5)
	ledger := newLedger(store)
	store.FailOn("inventory.InsertMovement", errors.New("disk full"))

	err := store.WithTx(context.Background(), func(ctx context.Context, q postgres.DBTX) error {
		return ledger.Reserve(ctx, q, productID, 2, 1)
	})

	require.Error(t, err)
	assert.Equal(t, 5, store.Stock(productID))
}

func TestRelease(t *testing.T) {
	store := storetest.New()
	productID := store.AddProduct("Fern", "10.00", 1)
	ledger := newLedger(store)
	ctx := context.Background()

	t.Run("returns units to stock", func(t *testing.T) {
		err := ledger.Release(ctx, nil, productID, 4, 1)
		require.NoError(t, err)
		assert.Equal(t, 5, store.Stock(productID))
		assert.Equal(t, 1, store.MovementCount(productID))
	})

	t.Run("unknown product", func(t *testing.T) {
		err := ledger.Release(ctx, nil, 9999, 1, 1)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		err := ledger.Release(ctx, nil, productID, 0, 1)
		assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)
		assert.Equal(t, 5, store.Stock(productID))
	})
}

func TestMovementsNewestFirst(t *testing.T) {
	store := storetest.New()
	productID := store.AddProduct("Fern", "10.00", 10)
	ledger := newLedger(store)
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, nil, productID, 2, 1))
	require.NoError(t, ledger.Release(ctx, nil, productID, 2, 1))

	movements, err := ledger.Movements(ctx, productID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, inventory.MovementReleased, movements[0].MovementType)
	assert.Equal(t, inventory.MovementReserved, movements[1].MovementType)
}
