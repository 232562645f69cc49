package storetest

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/matheusmosca/storefront/internal/addresses"
	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/cart"
	"github.com/matheusmosca/storefront/internal/catalog"
	"github.com/matheusmosca/storefront/internal/inventory"
	"github.com/matheusmosca/storefront/internal/orders"
	"github.com/matheusmosca/storefront/internal/postgres"
	"github.com/matheusmosca/storefront/internal/users"
)

// Catalog returns the store as a catalog.Repository.
func (s *Store) Catalog() catalog.Repository { return catalogRepo{s} }

// Inventory returns the store as an inventory.Repository.
func (s *Store) Inventory() inventory.Repository { return inventoryRepo{s} }

// Cart returns the store as a cart.Repository.
func (s *Store) Cart() cart.Repository { return cartRepo{s} }

// Orders returns the store as an orders.Repository.
func (s *Store) Orders() orders.Repository { return ordersRepo{s} }

// Addresses returns the store as an addresses.Repository.
func (s *Store) Addresses() addresses.Repository { return addressesRepo{s} }

// Users returns the store as a users.Repository.
func (s *Store) Users() users.Repository { return usersRepo{s} }

type catalogRepo struct{ s *Store }

func (r catalogRepo) List(_ context.Context, _ postgres.DBTX, f catalog.Filter) ([]catalog.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("catalog.List"); err != nil {
		return nil, err
	}

	f = f.Normalize()
	products := make([]catalog.Product, 0)
	for _, p := range r.s.data.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	if f.Offset >= len(products) {
		return []catalog.Product{}, nil
	}
	products = products[f.Offset:]
	if len(products) > f.Limit {
		products = products[:f.Limit]
	}
	return products, nil
}

func (r catalogRepo) Get(_ context.Context, _ postgres.DBTX, id int64) (*catalog.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("catalog.Get"); err != nil {
		return nil, err
	}
	p, ok := r.s.data.products[id]
	if !ok {
		return nil, apperr.NotFound("Product not found.")
	}
	return &p, nil
}

type inventoryRepo struct{ s *Store }

func (r inventoryRepo) GetProductForUpdate(_ context.Context, _ postgres.DBTX, productID int64) (*inventory.StockLevel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("inventory.GetProductForUpdate"); err != nil {
		return nil, err
	}
	p, ok := r.s.data.products[productID]
	if !ok {
		return nil, apperr.NotFound("Product not found.")
	}
	return &inventory.StockLevel{ProductID: p.ID, Stock: p.StockQuantity}, nil
}

func (r inventoryRepo) DecreaseStock(_ context.Context, _ postgres.DBTX, productID int64, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("inventory.DecreaseStock"); err != nil {
		return err
	}
	p := r.s.data.products[productID]
	if p.StockQuantity-qty < 0 {
		// mirrors the CHECK (stock_quantity >= 0) constraint
		return apperr.New(apperr.KindInternal, "stock_quantity check violated", nil)
	}
	p.StockQuantity -= qty
	r.s.data.products[productID] = p
	return nil
}

func (r inventoryRepo) IncreaseStock(_ context.Context, _ postgres.DBTX, productID int64, qty int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("inventory.IncreaseStock"); err != nil {
		return false, err
	}
	p, ok := r.s.data.products[productID]
	if !ok {
		return false, nil
	}
	p.StockQuantity += qty
	r.s.data.products[productID] = p
	return true, nil
}

func (r inventoryRepo) InsertMovement(_ context.Context, _ postgres.DBTX, m *inventory.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("inventory.InsertMovement"); err != nil {
		return err
	}
	r.s.data.movements = append(r.s.data.movements, *m)
	return nil
}

func (r inventoryRepo) ListMovements(_ context.Context, _ postgres.DBTX, productID int64, limit int) ([]inventory.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("inventory.ListMovements"); err != nil {
		return nil, err
	}
	out := make([]inventory.Movement, 0)
	for i := len(r.s.data.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if m := r.s.data.movements[i]; m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

type cartRepo struct{ s *Store }

func (r cartRepo) Upsert(_ context.Context, _ postgres.DBTX, userID, productID int64, qty int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("cart.Upsert"); err != nil {
		return 0, err
	}
	if _, ok := r.s.data.users[userID]; !ok {
		return 0, apperr.NotFound("User not found.")
	}

	st := r.s.data
	if i := st.cartIndex(userID, productID); i >= 0 {
		st.cart[i].quantity += qty
		return st.cart[i].quantity, nil
	}
	st.cart = append(st.cart, cartRow{seq: st.next(), userID: userID, productID: productID, quantity: qty})
	return qty, nil
}

func (r cartRepo) Delete(_ context.Context, _ postgres.DBTX, userID, productID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("cart.Delete"); err != nil {
		return 0, err
	}
	st := r.s.data
	i := st.cartIndex(userID, productID)
	if i < 0 {
		return 0, apperr.NotFound("Item not found in cart.")
	}
	qty := st.cart[i].quantity
	st.cart = append(st.cart[:i:i], st.cart[i+1:]...)
	return qty, nil
}

func (r cartRepo) List(_ context.Context, _ postgres.DBTX, userID int64) ([]cart.Line, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("cart.List"); err != nil {
		return nil, err
	}
	return r.lines(userID), nil
}

func (r cartRepo) ListForUpdate(_ context.Context, _ postgres.DBTX, userID int64) ([]cart.Line, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("cart.ListForUpdate"); err != nil {
		return nil, err
	}
	return r.lines(userID), nil
}

// lines must be called with mu held. Rows are kept in insertion order.
func (r cartRepo) lines(userID int64) []cart.Line {
	lines := make([]cart.Line, 0)
	for _, row := range r.s.data.cart {
		if row.userID != userID {
			continue
		}
		p, ok := r.s.data.products[row.productID]
		if !ok {
			continue
		}
		lines = append(lines, cart.Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			ImageURL:  p.ImageURL,
			Quantity:  row.quantity,
		})
	}
	return lines
}

func (r cartRepo) Clear(_ context.Context, _ postgres.DBTX, userID int64, productIDs []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("cart.Clear"); err != nil {
		return 0, err
	}
	drop := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		drop[id] = true
	}
	kept := r.s.data.cart[:0:0]
	var removed int64
	for _, row := range r.s.data.cart {
		if row.userID == userID && drop[row.productID] {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	r.s.data.cart = kept
	return removed, nil
}

type ordersRepo struct{ s *Store }

func (r ordersRepo) InsertOrder(_ context.Context, _ postgres.DBTX, o *orders.Order) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("orders.InsertOrder"); err != nil {
		return 0, err
	}
	o.ID = r.s.data.next()
	r.s.data.orders[o.ID] = *o
	return o.ID, nil
}

func (r ordersRepo) InsertItems(_ context.Context, _ postgres.DBTX, orderID int64, items []orders.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("orders.InsertItems"); err != nil {
		return err
	}
	for _, it := range items {
		r.s.data.items = append(r.s.data.items, itemRow{id: r.s.data.next(), orderID: orderID, item: it})
	}
	return nil
}

func (r ordersRepo) List(_ context.Context, _ postgres.DBTX) ([]orders.Summary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("orders.List"); err != nil {
		return nil, err
	}
	return r.summaries(func(orders.Order) bool { return true }), nil
}

func (r ordersRepo) ListByUser(_ context.Context, _ postgres.DBTX, userID int64) ([]orders.Summary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("orders.ListByUser"); err != nil {
		return nil, err
	}
	return r.summaries(func(o orders.Order) bool { return o.UserID == userID }), nil
}

// summaries must be called with mu held.
func (r ordersRepo) summaries(keep func(orders.Order) bool) []orders.Summary {
	out := make([]orders.Summary, 0)
	for _, o := range r.s.data.orders {
		if !keep(o) {
			continue
		}
		n := 0
		for _, row := range r.s.data.items {
			if row.orderID == o.ID {
				n++
			}
		}
		out = append(out, orders.Summary{
			OrderID:     o.ID,
			OrderDate:   o.OrderDate,
			TotalAmount: o.TotalAmount,
			Status:      o.Status,
			UserName:    r.s.data.users[o.UserID].Username,
			TotalItems:  n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].OrderID > out[j].OrderID
	})
	return out
}

func (r ordersRepo) Exists(_ context.Context, _ postgres.DBTX, orderID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("orders.Exists"); err != nil {
		return false, err
	}
	_, ok := r.s.data.orders[orderID]
	return ok, nil
}

func (r ordersRepo) Items(_ context.Context, _ postgres.DBTX, orderID int64) ([]orders.DetailItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("orders.Items"); err != nil {
		return nil, err
	}
	out := make([]orders.DetailItem, 0)
	for _, row := range r.s.data.items {
		if row.orderID != orderID {
			continue
		}
		p := r.s.data.products[row.item.ProductID]
		out = append(out, orders.DetailItem{
			ProductName:     p.Name,
			ImageURL:        p.ImageURL,
			Quantity:        row.item.Quantity,
			PriceAtPurchase: row.item.PriceAtPurchase,
		})
	}
	return out, nil
}

func (r ordersRepo) UpdateStatus(_ context.Context, _ postgres.DBTX, orderID int64, status orders.Status) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("orders.UpdateStatus"); err != nil {
		return false, err
	}
	o, ok := r.s.data.orders[orderID]
	if !ok {
		return false, nil
	}
	o.Status = status
	r.s.data.orders[orderID] = o
	return true, nil
}

type addressesRepo struct{ s *Store }

func (r addressesRepo) List(_ context.Context, _ postgres.DBTX, userID int64) ([]addresses.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("addresses.List"); err != nil {
		return nil, err
	}
	out := make([]addresses.Address, 0)
	for _, a := range r.s.data.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r addressesRepo) Insert(_ context.Context, _ postgres.DBTX, a *addresses.Address) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("addresses.Insert"); err != nil {
		return 0, err
	}
	if a.IsDefault {
		for _, other := range r.s.data.addresses {
			if other.UserID == a.UserID && other.IsDefault {
				// mirrors the one-default-per-user partial unique index
				return 0, apperr.New(apperr.KindConflict, "duplicate default address", nil)
			}
		}
	}
	a.ID = r.s.data.next()
	a.CreatedAt = time.Now()
	r.s.data.addresses[a.ID] = *a
	return a.ID, nil
}

func (r addressesRepo) ResetDefault(_ context.Context, _ postgres.DBTX, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("addresses.ResetDefault"); err != nil {
		return err
	}
	for id, a := range r.s.data.addresses {
		if a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			r.s.data.addresses[id] = a
		}
	}
	return nil
}

func (r addressesRepo) SetDefault(_ context.Context, _ postgres.DBTX, addressID, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("addresses.SetDefault"); err != nil {
		return false, err
	}
	a, ok := r.s.data.addresses[addressID]
	if !ok || a.UserID != userID {
		return false, nil
	}
	for id, other := range r.s.data.addresses {
		if id != addressID && other.UserID == userID && other.IsDefault {
			return false, apperr.New(apperr.KindConflict, "duplicate default address", nil)
		}
	}
	a.IsDefault = true
	r.s.data.addresses[addressID] = a
	return true, nil
}

func (r addressesRepo) BelongsTo(_ context.Context, _ postgres.DBTX, addressID, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("addresses.BelongsTo"); err != nil {
		return false, err
	}
	a, ok := r.s.data.addresses[addressID]
	return ok && a.UserID == userID, nil
}

type usersRepo struct{ s *Store }

func (r usersRepo) Create(_ context.Context, _ postgres.DBTX, u *users.User) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("users.Create"); err != nil {
		return 0, err
	}
	for _, other := range r.s.data.users {
		if other.Username == u.Username || other.Email == u.Email {
			return 0, apperr.New(apperr.KindConflict, "Username or email already exists. Please choose another.", nil)
		}
	}
	u.ID = r.s.data.next()
	u.CreatedAt = time.Now()
	r.s.data.users[u.ID] = *u
	return u.ID, nil
}

func (r usersRepo) GetByEmail(_ context.Context, _ postgres.DBTX, email string) (*users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("users.GetByEmail"); err != nil {
		return nil, err
	}
	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("User not found.")
}

func (r usersRepo) GetByID(_ context.Context, _ postgres.DBTX, id int64) (*users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("users.GetByID"); err != nil {
		return nil, err
	}
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found.")
	}
	return &u, nil
}
