package checkout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/cart"
	"github.com/matheusmosca/storefront/internal/events"
	"github.com/matheusmosca/storefront/internal/orders"
	"github.com/matheusmosca/storefront/internal/postgres"
)

// State is a step of the checkout workflow.
type State string

const (
	StateStarted       State = "Started"
	StateCartLoaded    State = "CartLoaded"
	StateTotalComputed State = "TotalComputed"
	StateOrderInserted State = "OrderInserted"
	StateItemsInserted State = "ItemsInserted"
	StateCartCleared   State = "CartCleared"
	StateCommitted     State = "Committed"
	StateRolledBack    State = "RolledBack"
)

// CartStore is the part of the cart storage checkout consumes.
type CartStore interface {
	ListForUpdate(ctx context.Context, q postgres.DBTX, userID int64) ([]cart.Line, error)
	Clear(ctx context.Context, q postgres.DBTX, userID int64, productIDs []int64) (int64, error)
}

// OrderStore is the part of the order ledger checkout writes to.
type OrderStore interface {
	InsertOrder(ctx context.Context, q postgres.DBTX, o *orders.Order) (int64, error)
	InsertItems(ctx context.Context, q postgres.DBTX, orderID int64, items []orders.Item) error
}

// AddressOwnership checks a shipping address against its owner.
type AddressOwnership interface {
	BelongsTo(ctx context.Context, q postgres.DBTX, addressID, userID int64) (bool, error)
}

// Result is a placed order.
type Result struct {
	OrderID int64
	Total   decimal.Decimal
}

// TotalString renders the total with exactly two decimals.
func (r Result) TotalString() string {
	return r.Total.StringFixed(2)
}

// Total is the sum of quantity times price over lines, rounded to cents.
func Total(lines []cart.Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total.Round(2)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTransitionHook calls fn on every state change.
func WithTransitionHook(fn func(State)) Option {
	return func(o *Orchestrator) { o.onTransition = fn }
}

// Orchestrator turns a user's cart into an order. Every step after Started
// runs inside one transaction; any failure rolls all of them back. Stock is
// not touched here, it was reserved when the items were added.
type Orchestrator struct {
	carts     CartStore
	orders    OrderStore
	addresses AddressOwnership
	tx        postgres.Transactor
	publisher events.Publisher

	ordersPlaced metric.Int64Counter
	failures     metric.Int64Counter

	tracer       trace.Tracer
	log          *zap.Logger
	onTransition func(State)
}

func NewOrchestrator(
	carts CartStore,
	orderStore OrderStore,
	addresses AddressOwnership,
	tx postgres.Transactor,
	publisher events.Publisher,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
	opts ...Option,
) (*Orchestrator, error) {
	ordersPlaced, err := meter.Int64Counter("storefront.checkout.orders",
		metric.WithDescription("Orders placed through checkout"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("storefront.checkout.failures",
		metric.WithDescription("Checkouts rolled back, by reason"))
	if err != nil {
		return nil, err
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	o := &Orchestrator{
		carts:        carts,
		orders:       orderStore,
		addresses:    addresses,
		tx:           tx,
		publisher:    publisher,
		ordersPlaced: ordersPlaced,
		failures:     failures,
		tracer:       tracer,
		log:          log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Checkout places an order for everything in userID's cart. shippingAddressID
// is optional and must belong to the user when given.
func (o *Orchestrator) Checkout(ctx context.Context, userID int64, shippingAddressID *int64) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, "checkout")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))

	if userID <= 0 {
		return nil, apperr.InvalidInput("User ID is required for checkout.")
	}

	log := o.log.With(zap.Int64("user_id", userID))
	advance := func(s State) {
		log.Debug("checkout transition", zap.String("state", string(s)))
		span.AddEvent(string(s))
		if o.onTransition != nil {
			o.onTransition(s)
		}
	}

	var result Result
	advance(StateStarted)
	err := o.tx.WithTx(ctx, func(ctx context.Context, q postgres.DBTX) error {
		lines, err := o.carts.ListForUpdate(ctx, q, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperr.New(apperr.KindEmptyCart, "Your cart is empty.", nil)
		}
		if shippingAddressID != nil {
			owned, err := o.addresses.BelongsTo(ctx, q, *shippingAddressID, userID)
			if err != nil {
				return err
			}
			if !owned {
				return apperr.NotFound("Address not found for this user.")
			}
		}
		advance(StateCartLoaded)

		total := Total(lines)
		advance(StateTotalComputed)

		order := orders.NewOrder(userID, shippingAddressID, total)
		orderID, err := o.orders.InsertOrder(ctx, q, order)
		if err != nil {
			return err
		}
		advance(StateOrderInserted)

		items := make([]orders.Item, 0, len(lines))
		productIDs := make([]int64, 0, len(lines))
		for _, l := range lines {
			productIDs = append(productIDs, l.ProductID)
			items = append(items, orders.Item{
				ProductID:       l.ProductID,
				Quantity:        l.Quantity,
				PriceAtPurchase: l.Price,
			})
		}
		if err := o.orders.InsertItems(ctx, q, orderID, items); err != nil {
			return err
		}
		advance(StateItemsInserted)

		if _, err := o.carts.Clear(ctx, q, userID, productIDs); err != nil {
			return err
		}
		advance(StateCartCleared)

		result = Result{OrderID: orderID, Total: total}
		return nil
	})
	if err != nil {
		advance(StateRolledBack)
		kind := apperr.KindOf(err)
		o.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(kind))))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))

		if kind == apperr.KindInternal {
			log.Error("❌ Checkout rolled back", zap.Error(err))
			return nil, apperr.Transaction("checkout failed", err)
		}
		return nil, err
	}
	advance(StateCommitted)

	o.ordersPlaced.Add(ctx, 1)
	span.SetAttributes(
		attribute.Int64("order_id", result.OrderID),
		attribute.String("total", result.TotalString()),
	)
	log.Info("🛒 Order placed", zap.Int64("order_id", result.OrderID), zap.String("total", result.TotalString()))

	event := events.Event{
		Type:       events.TypeOrderPlaced,
		OrderID:    result.OrderID,
		UserID:     userID,
		Status:     string(orders.StatusProcessing),
		Total:      result.TotalString(),
		OccurredAt: time.Now().UTC(),
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		log.Warn("Failed to publish order event", zap.Int64("order_id", result.OrderID), zap.Error(err))
	}

	return &result, nil
}
