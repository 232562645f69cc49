package cart_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/cart"
	"github.com/matheusmosca/storefront/internal/config"
	"github.com/matheusmosca/storefront/internal/inventory"
	"github.com/matheusmosca/storefront/internal/storetest"
	"github.com/matheusmosca/storefront/internal/users"
)

type recordingCache struct {
	mu  sync.Mutex
	ids []int64
}

func (c *recordingCache) InvalidateProduct(_ context.Context, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, id)
}

type fixture struct {
	store   *storetest.Store
	useCase *cart.UseCase
	cache   *recordingCache
	userID  int64
}

func newFixture(t *testing.T, coupling string) *fixture {
	t.Helper()
	store := storetest.New()
	tracer := noop.NewTracerProvider().Tracer("test")
	log := zap.NewNop()
	ledger := inventory.NewLedger(store.Inventory(), nil, tracer, log)
	cache := &recordingCache{}

	return &fixture{
		store:   store,
		useCase: cart.NewUseCase(store.Cart(), ledger, store, nil, cache, coupling, tracer, log),
		cache:   cache,
		userID:  store.AddUser("ana", users.RoleUser),
	}
}

func TestAddItem(t *testing.T) {
	for _, coupling := range []string{config.CouplingTransactional, config.CouplingIndependent} {
		t.Run(coupling, func(t *testing.T) {
			f := newFixture(t, coupling)
			productID := f.store.AddProduct("Fern", "10.00", 10)
			ctx := context.Background()

			created, err := f.useCase.AddItem(ctx, f.userID, productID, 2)
			require.NoError(t, err)
			assert.True(t, created)

			created, err = f.useCase.AddItem(ctx, f.userID, productID, 3)
			require.NoError(t, err)
			assert.False(t, created, "second add merges into the existing line")

			qty, ok := f.store.CartQuantity(f.userID, productID)
			require.True(t, ok)
			assert.Equal(t, 5, qty)
			assert.Equal(t, 5, f.store.Stock(productID))
			assert.Contains(t, f.cache.ids, productID)
		})
	}
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t, config.CouplingTransactional)
	productID := f.store.AddProduct("Fern", "10.00", 3)
	ctx := context.Background()

	tests := []struct {
		name      string
		userID    int64
		productID int64
		qty       int
		want      error
	}{
		{"zero quantity", f.userID, productID, 0, apperr.ErrInvalidQuantity},
		{"negative quantity", f.userID, productID, -2, apperr.ErrInvalidQuantity},
		{"missing user", 0, productID, 1, apperr.ErrInvalidInput},
		{"missing product", f.userID, 0, 1, apperr.ErrInvalidInput},
		{"unknown product", f.userID, 9999, 1, apperr.ErrNotFound},
		{"more than in stock", f.userID, productID, 4, apperr.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.useCase.AddItem(ctx, tt.userID, tt.productID, tt.qty)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 3, f.store.Stock(productID))
			assert.Zero(t, f.store.CartSize(f.userID))
		})
	}
}

func TestAddItemIsAtomicWhenTransactional(t *testing.T) {
	f := newFixture(t, config.CouplingTransactional)
	productID := f.store.AddProduct("Fern", "10.00", 10)
	f.store.FailOn("cart.Upsert", errors.New("connection reset"))

	_, err := f.useCase.AddItem(context.Background(), f.userID, productID, 2)

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrPartialFailure)
	assert.Equal(t, 10, f.store.Stock(productID), "reservation rolled back with the cart write")
	assert.Zero(t, f.store.MovementCount(productID))
}

func TestAddItemPartialFailureWhenIndependent(t *testing.T) {
	f := newFixture(t, config.CouplingIndependent)
	productID := f.store.AddProduct("Fern", "10.00", 10)
	f.store.FailOn("cart.Upsert", errors.New("connection reset"))

	_, err := f.useCase.AddItem(context.Background(), f.userID, productID, 2)

	require.ErrorIs(t, err, apperr.ErrPartialFailure)
	assert.Equal(t, 8, f.store.Stock(productID), "stock stays reduced")
	assert.Zero(t, f.store.CartSize(f.userID))
}

func TestAddThenRemoveRestoresStock(t *testing.T) {
	for _, coupling := range []string{config.CouplingTransactional, config.CouplingIndependent} {
		t.Run(coupling, func(t *testing.T) {
			f := newFixture(t, coupling)
			productID := f.store.AddProduct("Fern", "10.00", 7)
			ctx := context.Background()

			_, err := f.useCase.AddItem(ctx, f.userID, productID, 3)
			require.NoError(t, err)
			_, err = f.useCase.AddItem(ctx, f.userID, productID, 2)
			require.NoError(t, err)

			require.NoError(t, f.useCase.RemoveItem(ctx, f.userID, productID))

			assert.Equal(t, 7, f.store.Stock(productID))
			_, ok := f.store.CartQuantity(f.userID, productID)
			assert.False(t, ok)
		})
	}
}

func TestRemoveItemNotInCart(t *testing.T) {
	f := newFixture(t, config.CouplingTransactional)
	productID := f.store.AddProduct("Fern", "10.00", 7)

	err := f.useCase.RemoveItem(context.Background(), f.userID, productID)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 7, f.store.Stock(productID))
}

func TestRemoveItemIsAtomicWhenTransactional(t *testing.T) {
	f := newFixture(t, config.CouplingTransactional)
	productID := f.store.AddProduct("Fern", "10.00", 7)
	ctx := context.Background()
	_, err := f.useCase.AddItem(ctx, f.userID, productID, 3)
	require.NoError(t, err)
	f.store.FailOn("inventory.IncreaseStock", errors.New("connection reset"))

	err = f.useCase.RemoveItem(ctx, f.userID, productID)

	require.Error(t, err)
	qty, ok := f.store.CartQuantity(f.userID, productID)
	assert.True(t, ok, "cart line survives the rollback")
	assert.Equal(t, 3, qty)
	assert.Equal(t, 4, f.store.Stock(productID))
}

func TestRemoveItemPartialFailureWhenIndependent(t *testing.T) {
	f := newFixture(t, config.CouplingIndependent)
	productID := f.store.AddProduct("Fern", "10.00", 7)
	ctx := context.Background()
	_, err := f.useCase.AddItem(ctx, f.userID, productID, 3)
	require.NoError(t, err)
	f.store.FailOn("inventory.IncreaseStock", errors.New("connection reset"))

	err = f.useCase.RemoveItem(ctx, f.userID, productID)

	require.ErrorIs(t, err, apperr.ErrPartialFailure)
	_, ok := f.store.CartQuantity(f.userID, productID)
	assert.False(t, ok)
	assert.Equal(t, 4, f.store.Stock(productID), "stock not restored")
}

func TestConcurrentAddsNeverOversell(t *testing.T) {
	f := newFixture(t, config.CouplingTransactional)
	productID := f.store.AddProduct("Fern", "10.00", 5)
	other := f.store.AddUser("bruno", users.RoleUser)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []int64{f.userID, other} {
		wg.Add(1)
		go func(i int, userID int64) {
			defer wg.Done()
			_, errs[i] = f.useCase.AddItem(context.Background(), userID, productID, 3)
		}(i, userID)
	}
	wg.Wait()

	var succeeded, refused int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperr.ErrInsufficientStock):
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, refused)
	assert.Equal(t, 2, f.store.Stock(productID))
}

func TestListKeepsInsertionOrderAndLivePrice(t *testing.T) {
	f := newFixture(t, config.CouplingTransactional)
	a := f.store.AddProduct("Aloe", "10.00", 5)
	b := f.store.AddProduct("Basil", "5.00", 5)
	ctx := context.Background()

	_, err := f.useCase.AddItem(ctx, f.userID, b, 1)
	require.NoError(t, err)
	_, err = f.useCase.AddItem(ctx, f.userID, a, 2)
	require.NoError(t, err)
	f.store.SetPrice(a, "12.50")

	lines, err := f.useCase.List(ctx, f.userID)

	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, b, lines[0].ProductID)
	assert.Equal(t, a, lines[1].ProductID)
	assert.Equal(t, "12.50", lines[1].Price.StringFixed(2))
	assert.Equal(t, "25.00", lines[1].Subtotal().StringFixed(2))
}
