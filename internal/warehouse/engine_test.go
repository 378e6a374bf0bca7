package warehouse_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-warehouse-orders.git/internal/memstore"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/warehouse"
)

var day = warehouse.NewDate(2026, time.March, 10)

func newEngine(s *memstore.Store) *warehouse.Engine {
	return &warehouse.Engine{Store: s, Calendar: warehouse.NewCalendar(day)}
}

func productQty(t *testing.T, s *memstore.Store, id int64) int {
	t.Helper()
	p, err := s.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

// stock plus the sum of active reservations must always equal the initial stock
func checkConservation(t *testing.T, eng *warehouse.Engine, s *memstore.Store, productID int64, initial int) {
	t.Helper()
	orders, err := eng.ListOrders(context.Background())
	require.NoError(t, err)
	reserved := 0
	for _, o := range orders {
		for _, it := range o.Items {
			if it.ProductID == productID {
				reserved += it.Quantity
			}
		}
	}
	assert.Equal(t, initial, productQty(t, s, productID)+reserved)
}

func TestReservationLifecycle(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p := s.AddProduct("USB-C cable", 10)
	eng := newEngine(s)

	o, err := eng.CreateOrder(ctx, "Acme Corp", day)
	require.NoError(t, err)

	it, err := eng.CreateItem(ctx, o.ID, p.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, 4, productQty(t, s, p.ID))
	checkConservation(t, eng, s, p.ID, 10)

	_, err = eng.CreateItem(ctx, o.ID, p.ID, 5)
	var stockErr *warehouse.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Available)
	assert.Equal(t, 4, productQty(t, s, p.ID), "failed reservation must not touch stock")
	checkConservation(t, eng, s, p.ID, 10)

	require.NoError(t, eng.UpdateItemQuantity(ctx, it.ID, 3))
	assert.Equal(t, 7, productQty(t, s, p.ID))
	checkConservation(t, eng, s, p.ID, 10)

	require.NoError(t, eng.DeleteItem(ctx, it.ID))
	assert.Equal(t, 10, productQty(t, s, p.ID))
	checkConservation(t, eng, s, p.ID, 10)
}

func TestCreateItemValidation(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p := s.AddProduct("Thunderbolt dock", 8)
	eng := newEngine(s)

	o, err := eng.CreateOrder(ctx, "Acme Corp", day)
	require.NoError(t, err)

	_, err = eng.CreateItem(ctx, o.ID, p.ID, 0)
	assert.ErrorIs(t, err, warehouse.ErrInvalidQuantity)

	_, err = eng.CreateItem(ctx, o.ID, p.ID, -2)
	assert.ErrorIs(t, err, warehouse.ErrInvalidQuantity)

	_, err = eng.CreateItem(ctx, o.ID, 999, 1)
	assert.ErrorIs(t, err, warehouse.ErrNotFound)

	_, err = eng.CreateItem(ctx, "ORD-missing", p.ID, 1)
	assert.ErrorIs(t, err, warehouse.ErrNotFound)

	// shipped orders take no new items
	_, _, err = eng.AdvanceDay(ctx)
	require.NoError(t, err)
	_, err = eng.CreateItem(ctx, o.ID, p.ID, 1)
	assert.ErrorIs(t, err, warehouse.ErrNotFound)
	assert.Equal(t, 8, productQty(t, s, p.ID))
}

func TestUpdateItemQuantity(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p := s.AddProduct("Sony WH-1000XM4 headphones", 10)
	eng := newEngine(s)

	o, err := eng.CreateOrder(ctx, "Acme Corp", day)
	require.NoError(t, err)
	it, err := eng.CreateItem(ctx, o.ID, p.ID, 4)
	require.NoError(t, err)
	require.Equal(t, 6, productQty(t, s, p.ID))

	t.Run("increase beyond stock leaves both unchanged", func(t *testing.T) {
		err := eng.UpdateItemQuantity(ctx, it.ID, 11)
		var stockErr *warehouse.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 6, stockErr.Available)
		assert.Equal(t, 6, productQty(t, s, p.ID))

		items, err := s.ListOrderItems(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 4, items[0].Quantity)
	})

	t.Run("increase takes the delta", func(t *testing.T) {
		require.NoError(t, eng.UpdateItemQuantity(ctx, it.ID, 7))
		assert.Equal(t, 3, productQty(t, s, p.ID))
	})

	t.Run("decrease returns the excess", func(t *testing.T) {
		require.NoError(t, eng.UpdateItemQuantity(ctx, it.ID, 2))
		assert.Equal(t, 8, productQty(t, s, p.ID))
	})

	t.Run("same quantity is a no-op", func(t *testing.T) {
		require.NoError(t, eng.UpdateItemQuantity(ctx, it.ID, 2))
		assert.Equal(t, 8, productQty(t, s, p.ID))
	})

	t.Run("zero and missing are rejected", func(t *testing.T) {
		assert.ErrorIs(t, eng.UpdateItemQuantity(ctx, it.ID, 0), warehouse.ErrInvalidQuantity)
		assert.ErrorIs(t, eng.UpdateItemQuantity(ctx, "ITEM-missing", 1), warehouse.ErrNotFound)
	})
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p1 := s.AddProduct("Keychron K8 keyboard", 22)
	p2 := s.AddProduct("Logitech C920 webcam", 20)
	eng := newEngine(s)

	o, err := eng.CreateOrder(ctx, "Globex", day.Next())
	require.NoError(t, err)
	_, err = eng.CreateItem(ctx, o.ID, p1.ID, 4)
	require.NoError(t, err)
	_, err = eng.CreateItem(ctx, o.ID, p2.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 18, productQty(t, s, p1.ID))
	require.Equal(t, 18, productQty(t, s, p2.ID))

	require.NoError(t, eng.DeleteOrder(ctx, o.ID))
	assert.Equal(t, 22, productQty(t, s, p1.ID))
	assert.Equal(t, 20, productQty(t, s, p2.ID))

	items, err := s.ListOrderItems(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, eng.DeleteOrder(ctx, o.ID), warehouse.ErrNotFound)
}

func TestMoveItem(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p := s.AddProduct("TP-Link Archer AX50 router", 12)
	eng := newEngine(s)

	src, err := eng.CreateOrder(ctx, "Acme Corp", day.Next())
	require.NoError(t, err)
	dst, err := eng.CreateOrder(ctx, "Globex", day.Next())
	require.NoError(t, err)
	it, err := eng.CreateItem(ctx, src.ID, p.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 9, productQty(t, s, p.ID))

	require.NoError(t, eng.MoveItem(ctx, it.ID, dst.ID))
	assert.Equal(t, 9, productQty(t, s, p.ID), "move must not touch stock")

	srcItems, err := s.ListOrderItems(ctx, src.ID)
	require.NoError(t, err)
	assert.Empty(t, srcItems)
	dstItems, err := s.ListOrderItems(ctx, dst.ID)
	require.NoError(t, err)
	require.Len(t, dstItems, 1)
	assert.Equal(t, it.ID, dstItems[0].ID)

	// moving to the current owner is a no-op success
	require.NoError(t, eng.MoveItem(ctx, it.ID, dst.ID))

	assert.ErrorIs(t, eng.MoveItem(ctx, it.ID, "ORD-missing"), warehouse.ErrNotFound)
	assert.ErrorIs(t, eng.MoveItem(ctx, "ITEM-missing", dst.ID), warehouse.ErrNotFound)
}

func TestMoveItemRejectsShippedDestination(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p := s.AddProduct("1TB external hard drive", 25)
	eng := newEngine(s)

	future, err := eng.CreateOrder(ctx, "Acme Corp", day.Next())
	require.NoError(t, err)
	today, err := eng.CreateOrder(ctx, "Globex", day)
	require.NoError(t, err)
	it, err := eng.CreateItem(ctx, future.ID, p.ID, 2)
	require.NoError(t, err)

	shipped, _, err := eng.AdvanceDay(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, shipped)

	assert.ErrorIs(t, eng.MoveItem(ctx, it.ID, today.ID), warehouse.ErrNotFound)
}

type capturePublisher struct {
	values [][]byte
}

func (c *capturePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	c.values = append(c.values, value)
}

func TestAdvanceDay(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	eng := newEngine(s)
	shippedEvents := &capturePublisher{}
	eng.Events = &warehouse.Emitter{Shipped: shippedEvents, Service: "test"}

	a, err := eng.CreateOrder(ctx, "Acme Corp", day)
	require.NoError(t, err)
	b, err := eng.CreateOrder(ctx, "Globex", day)
	require.NoError(t, err)
	c, err := eng.CreateOrder(ctx, "Initech", day.Next())
	require.NoError(t, err)

	count, next, err := eng.AdvanceDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.True(t, next.Equal(day.Next()), "calendar must advance exactly one day")
	assert.True(t, eng.Calendar.Current().Equal(next))

	orders, err := eng.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, c.ID, orders[0].ID)
	assert.Equal(t, warehouse.StatusActive, orders[0].Status)

	// one shipped event per order, envelope v1
	require.Len(t, shippedEvents.values, 2)
	got := map[string]bool{}
	for _, raw := range shippedEvents.values {
		var env warehouse.Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		assert.Equal(t, warehouse.EventOrderShipped, env.EventType)
		assert.Equal(t, 1, env.EventVersion)
		var p warehouse.OrderShippedPayload
		require.NoError(t, json.Unmarshal(env.Payload, &p))
		got[p.OrderID] = true
	}
	assert.True(t, got[a.ID])
	assert.True(t, got[b.ID])
}

func TestCreateOrderInvalidDate(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	eng := newEngine(s)

	yesterday := warehouse.NewDate(2026, time.March, 9)
	_, err := eng.CreateOrder(ctx, "Acme Corp", yesterday)
	assert.ErrorIs(t, err, warehouse.ErrInvalidDate)

	orders, err := eng.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders, "rejected order must leave no record")
}

func TestUpdateOrder(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	eng := newEngine(s)

	o, err := eng.CreateOrder(ctx, "Acme Corp", day)
	require.NoError(t, err)

	assert.ErrorIs(t, eng.UpdateOrder(ctx, o.ID, "Acme Corp", warehouse.NewDate(2026, time.March, 9)), warehouse.ErrInvalidDate)
	assert.ErrorIs(t, eng.UpdateOrder(ctx, "ORD-missing", "X", day), warehouse.ErrNotFound)

	require.NoError(t, eng.UpdateOrder(ctx, o.ID, "Acme Corporation", day.Next()))
	orders, err := eng.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "Acme Corporation", orders[0].CustomerName)
	assert.True(t, orders[0].OrderDate.Equal(day.Next()))

	// shipped orders cannot be updated
	o2, err := eng.CreateOrder(ctx, "Globex", day)
	require.NoError(t, err)
	_, _, err = eng.AdvanceDay(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, eng.UpdateOrder(ctx, o2.ID, "Globex", day.Next()), warehouse.ErrNotFound)
}

func insertStaleOrder(t *testing.T, s *memstore.Store, orderID string, date warehouse.Date, productID int64, qty int) {
	t.Helper()
	ctx := context.Background()
	err := s.WithTx(ctx, func(tx warehouse.Tx) error {
		if err := tx.InsertOrder(ctx, warehouse.Order{
			ID:           orderID,
			CustomerName: "Stale Co",
			OrderDate:    date,
			Status:       warehouse.StatusActive,
		}); err != nil {
			return err
		}
		if qty > 0 {
			if err := tx.InsertItem(ctx, warehouse.OrderItem{
				ID: warehouse.NewItemID(), OrderID: orderID, ProductID: productID, Quantity: qty,
			}); err != nil {
				return err
			}
			if _, err := tx.AdjustStock(ctx, productID, -qty); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestExpireStaleOrders(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	p := s.AddProduct("Dell XPS 13 laptop", 15)
	eng := newEngine(s)

	insertStaleOrder(t, s, "ORD-stale", warehouse.NewDate(2026, time.March, 8), p.ID, 3)
	require.Equal(t, 12, productQty(t, s, p.ID))

	fresh, err := eng.CreateOrder(ctx, "Acme Corp", day)
	require.NoError(t, err)

	n, err := eng.ExpireStaleOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 15, productQty(t, s, p.ID), "sweep must return reserved stock")

	items, err := s.ListOrderItems(ctx, "ORD-stale")
	require.NoError(t, err)
	assert.Empty(t, items)

	orders, err := eng.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, fresh.ID, orders[0].ID)
}

func TestListOrdersDateFilter(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	s.AddProduct("Samsung monitor", 18)
	eng := newEngine(s)

	// active order whose date has passed: still stored, never listed
	insertStaleOrder(t, s, "ORD-passed", warehouse.NewDate(2026, time.March, 9), 0, 0)

	orders, err := eng.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
