// Package storetest is an in-memory stand-in for the Postgres repositories.
// One Store implements every repository interface plus postgres.Transactor:
// transactions are serialized, and a failed one restores the snapshot taken
// when it began, so rollback behavior can be asserted without a database.
package storetest

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/storefront/internal/addresses"
	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/catalog"
	"github.com/matheusmosca/storefront/internal/inventory"
	"github.com/matheusmosca/storefront/internal/orders"
	"github.com/matheusmosca/storefront/internal/postgres"
	"github.com/matheusmosca/storefront/internal/users"
)

// OpCommit names the commit step for FailOn.
const OpCommit = "commit"

type cartRow struct {
	seq       int64
	userID    int64
	productID int64
	quantity  int
}

type itemRow struct {
	id      int64
	orderID int64
	item    orders.Item
}

type state struct {
	seq       int64
	products  map[int64]catalog.Product
	cart      []cartRow
	orders    map[int64]orders.Order
	items     []itemRow
	addresses map[int64]addresses.Address
	users     map[int64]users.User
	movements []inventory.Movement
}

func (st *state) clone() *state {
	return &state{
		seq:       st.seq,
		products:  maps.Clone(st.products),
		cart:      slices.Clone(st.cart),
		orders:    maps.Clone(st.orders),
		items:     slices.Clone(st.items),
		addresses: maps.Clone(st.addresses),
		users:     maps.Clone(st.users),
		movements: slices.Clone(st.movements),
	}
}

func (st *state) next() int64 {
	st.seq++
	return st.seq
}

// Store is the in-memory database.
type Store struct {
	txMu   sync.Mutex
	mu     sync.Mutex
	data   *state
	faults map[string]error
}

func New() *Store {
	return &Store{
		data: &state{
			products:  map[int64]catalog.Product{},
			orders:    map[int64]orders.Order{},
			addresses: map[int64]addresses.Address{},
			users:     map[int64]users.User{},
		},
		faults: map[string]error{},
	}
}

// FailOn makes every later call of op return err. op is "<repo>.<Method>"
// (for example "orders.InsertItems") or OpCommit.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// ClearFaults removes every injected failure.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[string]error{}
}

// fault must be called with mu held.
func (s *Store) fault(op string) error {
	return s.faults[op]
}

// WithTx implements postgres.Transactor. Repositories ignore the DBTX they
// are handed, so fn receives nil.
func (s *Store) WithTx(ctx context.Context, fn postgres.TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		s.restore(snapshot)
		return err
	}

	s.mu.Lock()
	err := s.fault(OpCommit)
	s.mu.Unlock()
	if err != nil {
		s.restore(snapshot)
		return apperr.Transaction("failed to commit transaction", err)
	}
	return nil
}

func (s *Store) restore(snapshot *state) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = snapshot
}

// AddUser seeds a user and returns its id.
func (s *Store) AddUser(username string, role users.Role) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.data.next()
	s.data.users[id] = users.User{
		ID:        id,
		Username:  username,
		Email:     username + "@example.com",
		Role:      role,
		CreatedAt: time.Now(),
	}
	return id
}

// AddProduct seeds a product priced at price (a decimal string) and returns
// its id.
func (s *Store) AddProduct(name, price string, stock int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.data.next()
	s.data.products[id] = catalog.Product{
		ID:            id,
		Name:          name,
		Category:      "plants",
		Price:         decimal.RequireFromString(price),
		ImageURL:      "/img/" + strings.ToLower(name) + ".jpg",
		StockQuantity: stock,
		UpdatedAt:     time.Now(),
	}
	return id
}

// SetPrice changes a product's live price.
func (s *Store) SetPrice(productID int64, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.data.products[productID]
	p.Price = decimal.RequireFromString(price)
	s.data.products[productID] = p
}

// DeleteProduct removes a product row.
func (s *Store) DeleteProduct(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.products, productID)
}

// Stock returns the product's stock, or -1 when it does not exist.
func (s *Store) Stock(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.products[productID]
	if !ok {
		return -1
	}
	return p.StockQuantity
}

// CartQuantity returns the user's quantity of productID and whether the
// line exists.
func (s *Store) CartQuantity(userID, productID int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.data.cartIndex(userID, productID)
	if i < 0 {
		return 0, false
	}
	return s.data.cart[i].quantity, true
}

// CartSize returns the number of lines in the user's cart.
func (s *Store) CartSize(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.data.cart {
		if row.userID == userID {
			n++
		}
	}
	return n
}

// OrderCount returns the number of orders.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orders)
}

// Order returns the stored order.
func (s *Store) Order(orderID int64) (orders.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.data.orders[orderID]
	return o, ok
}

// OrderItems returns the order's lines in insertion order.
func (s *Store) OrderItems(orderID int64) []orders.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []orders.Item
	for _, row := range s.data.items {
		if row.orderID == orderID {
			out = append(out, row.item)
		}
	}
	return out
}

// MovementCount returns the number of journal entries for productID.
func (s *Store) MovementCount(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.data.movements {
		if m.ProductID == productID {
			n++
		}
	}
	return n
}

// DefaultAddresses returns the ids of the user's default addresses.
func (s *Store) DefaultAddresses(userID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, a := range s.data.addresses {
		if a.UserID == userID && a.IsDefault {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (st *state) cartIndex(userID, productID int64) int {
	for i, row := range st.cart {
		if row.userID == userID && row.productID == productID {
			return i
		}
	}
	return -1
}
