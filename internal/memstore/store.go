// Package memstore is an in-memory warehouse.Store used by tests and local
// runs without Postgres. WithTx serializes on one mutex and restores a
// snapshot when the callback fails, mirroring a database rollback.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/ariefcatur/go-warehouse-orders.git/internal/warehouse"
)

type Store struct {
	mu       sync.Mutex
	products map[int64]warehouse.Product
	orders   map[string]warehouse.Order
	items    map[string]warehouse.OrderItem
	nextID   int64
}

func New() *Store {
	return &Store{
		products: map[int64]warehouse.Product{},
		orders:   map[string]warehouse.Order{},
		items:    map[string]warehouse.OrderItem{},
		nextID:   1,
	}
}

// AddProduct registers a product with the next serial id and returns it.
func (s *Store) AddProduct(name string, quantity int) warehouse.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := warehouse.Product{ID: s.nextID, Name: name, Quantity: quantity}
	s.nextID++
	s.products[p.ID] = p
	return p
}

func (s *Store) WithTx(ctx context.Context, fn func(tx warehouse.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	products, orders, items := cloneMap(s.products), cloneMap(s.orders), cloneMap(s.items)
	if err := fn((*tx)(s)); err != nil {
		s.products, s.orders, s.items = products, orders, items
		return err
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]warehouse.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]warehouse.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetProduct(ctx context.Context, productID int64) (warehouse.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return warehouse.Product{}, warehouse.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListActiveOrders(ctx context.Context, from warehouse.Date) ([]warehouse.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []warehouse.Order
	for _, o := range s.orders {
		if o.Status == warehouse.StatusActive && !o.OrderDate.Before(from) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.Before(out[j].OrderDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListOrderItems(ctx context.Context, orderID string) ([]warehouse.ItemDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []warehouse.ItemDetail{}
	for _, it := range s.items {
		if it.OrderID != orderID {
			continue
		}
		out = append(out, warehouse.ItemDetail{
			OrderItem:   it,
			ProductName: s.products[it.ProductID].Name,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// tx operates on the Store's maps with the mutex already held by WithTx.
type tx Store

func (t *tx) GetProductForUpdate(ctx context.Context, productID int64) (warehouse.Product, error) {
	p, ok := t.products[productID]
	if !ok {
		return warehouse.Product{}, warehouse.ErrNotFound
	}
	return p, nil
}

func (t *tx) AdjustStock(ctx context.Context, productID int64, delta int) (int, error) {
	p, ok := t.products[productID]
	if !ok {
		return 0, warehouse.ErrNotFound
	}
	p.Quantity += delta
	t.products[productID] = p
	return p.Quantity, nil
}

func (t *tx) InsertOrder(ctx context.Context, o warehouse.Order) error {
	t.orders[o.ID] = o
	return nil
}

func (t *tx) GetOrder(ctx context.Context, orderID string) (warehouse.Order, error) {
	o, ok := t.orders[orderID]
	if !ok {
		return warehouse.Order{}, warehouse.ErrNotFound
	}
	return o, nil
}

func (t *tx) UpdateOrder(ctx context.Context, orderID, customerName string, date warehouse.Date) error {
	o, ok := t.orders[orderID]
	if !ok {
		return warehouse.ErrNotFound
	}
	o.CustomerName = customerName
	o.OrderDate = date
	t.orders[orderID] = o
	return nil
}

func (t *tx) DeleteOrder(ctx context.Context, orderID string) error {
	if _, ok := t.orders[orderID]; !ok {
		return warehouse.ErrNotFound
	}
	delete(t.orders, orderID)
	// cascade, as the FK does in Postgres
	for id, it := range t.items {
		if it.OrderID == orderID {
			delete(t.items, id)
		}
	}
	return nil
}

func (t *tx) ActiveOrdersBefore(ctx context.Context, cutoff warehouse.Date) ([]warehouse.Order, error) {
	var out []warehouse.Order
	for _, o := range t.orders {
		if o.Status == warehouse.StatusActive && o.OrderDate.Before(cutoff) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) ShipOrdersOn(ctx context.Context, day warehouse.Date) ([]warehouse.Order, error) {
	var out []warehouse.Order
	for id, o := range t.orders {
		if o.Status == warehouse.StatusActive && o.OrderDate.Equal(day) {
			o.Status = warehouse.StatusShipped
			t.orders[id] = o
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) InsertItem(ctx context.Context, it warehouse.OrderItem) error {
	t.items[it.ID] = it
	return nil
}

func (t *tx) GetItem(ctx context.Context, itemID string) (warehouse.OrderItem, error) {
	it, ok := t.items[itemID]
	if !ok {
		return warehouse.OrderItem{}, warehouse.ErrNotFound
	}
	return it, nil
}

func (t *tx) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	it, ok := t.items[itemID]
	if !ok {
		return warehouse.ErrNotFound
	}
	it.Quantity = quantity
	t.items[itemID] = it
	return nil
}

func (t *tx) UpdateItemOrder(ctx context.Context, itemID, orderID string) error {
	it, ok := t.items[itemID]
	if !ok {
		return warehouse.ErrNotFound
	}
	it.OrderID = orderID
	t.items[itemID] = it
	return nil
}

func (t *tx) DeleteItem(ctx context.Context, itemID string) error {
	if _, ok := t.items[itemID]; !ok {
		return warehouse.ErrNotFound
	}
	delete(t.items, itemID)
	return nil
}

func (t *tx) ItemsByOrder(ctx context.Context, orderID string) ([]warehouse.OrderItem, error) {
	var out []warehouse.OrderItem
	for _, it := range t.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
