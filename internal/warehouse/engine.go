package warehouse

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine keeps product stock, order line items, and the calendar mutually
// consistent: every item mutation carries a matching, opposite stock
// adjustment, and day-advance is a pure status transition. Each check-then-
// mutate sequence runs inside a single store transaction.
type Engine struct {
	Store    Store
	Calendar *Calendar
	Events   *Emitter
	Log      *zap.Logger
}

// IDs are opaque and globally unique; the prefix only helps operators tell
// the two kinds apart.
func NewOrderID() string { return "ORD-" + uuid.NewString() }
func NewItemID() string  { return "ITEM-" + uuid.NewString() }

func (e *Engine) CreateOrder(ctx context.Context, customerName string, orderDate Date) (Order, error) {
	if orderDate.Before(e.Calendar.Current()) {
		return Order{}, ErrInvalidDate
	}
	o := Order{
		ID:           NewOrderID(),
		CustomerName: customerName,
		OrderDate:    orderDate,
		Status:       StatusActive,
	}
	err := e.Store.WithTx(ctx, func(tx Tx) error {
		return tx.InsertOrder(ctx, o)
	})
	if err != nil {
		return Order{}, err
	}
	e.Events.OrderCreated(o)
	return o, nil
}

func (e *Engine) UpdateOrder(ctx context.Context, orderID, customerName string, orderDate Date) error {
	if orderDate.Before(e.Calendar.Current()) {
		return ErrInvalidDate
	}
	return e.Store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != StatusActive {
			return ErrNotFound // shipped orders are inert
		}
		return tx.UpdateOrder(ctx, orderID, customerName, orderDate)
	})
}

// DeleteOrder returns every item's quantity to its product's stock, then
// removes the order; the items go with it (exclusive ownership).
func (e *Engine) DeleteOrder(ctx context.Context, orderID string) error {
	return e.Store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != StatusActive {
			return ErrNotFound
		}
		items, err := tx.ItemsByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if _, err := tx.AdjustStock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		return tx.DeleteOrder(ctx, orderID)
	})
}

// CreateItem reserves stock for a new line item: the product row stays locked
// from the availability check through the decrement.
func (e *Engine) CreateItem(ctx context.Context, orderID string, productID int64, quantity int) (OrderItem, error) {
	if quantity <= 0 {
		return OrderItem{}, ErrInvalidQuantity
	}
	it := OrderItem{
		ID:        NewItemID(),
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
	}
	err := e.Store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != StatusActive {
			return ErrNotFound
		}
		p, err := tx.GetProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if p.Quantity < quantity {
			return &InsufficientStockError{ProductID: productID, Requested: quantity, Available: p.Quantity}
		}
		if err := tx.InsertItem(ctx, it); err != nil {
			return err
		}
		_, err = tx.AdjustStock(ctx, productID, -quantity)
		return err
	})
	if err != nil {
		return OrderItem{}, err
	}
	return it, nil
}

// UpdateItemQuantity resizes a reservation: growing it takes the difference
// from stock, shrinking it returns the excess.
func (e *Engine) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return e.Store.WithTx(ctx, func(tx Tx) error {
		it, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		delta := quantity - it.Quantity
		if delta == 0 {
			return nil
		}
		p, err := tx.GetProductForUpdate(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if delta > 0 && p.Quantity < delta {
			return &InsufficientStockError{ProductID: it.ProductID, Requested: delta, Available: p.Quantity}
		}
		if _, err := tx.AdjustStock(ctx, it.ProductID, -delta); err != nil {
			return err
		}
		return tx.UpdateItemQuantity(ctx, itemID, quantity)
	})
}

// DeleteItem releases the item's full reservation back to stock.
func (e *Engine) DeleteItem(ctx context.Context, itemID string) error {
	return e.Store.WithTx(ctx, func(tx Tx) error {
		it, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if _, err := tx.AdjustStock(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
		return tx.DeleteItem(ctx, itemID)
	})
}

// MoveItem reassigns the owning order. The reservation follows the item, so
// stock is never touched. The destination must be an existing active order;
// moving to the current owner is a no-op.
func (e *Engine) MoveItem(ctx context.Context, itemID, newOrderID string) error {
	return e.Store.WithTx(ctx, func(tx Tx) error {
		it, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if it.OrderID == newOrderID {
			return nil
		}
		o, err := tx.GetOrder(ctx, newOrderID)
		if err != nil {
			return err
		}
		if o.Status != StatusActive {
			return ErrNotFound
		}
		return tx.UpdateItemOrder(ctx, itemID, newOrderID)
	})
}

// AdvanceDay ships every active order dated today, then moves the calendar
// forward one day. Stock stays untouched: the decrement already happened when
// each item was created.
func (e *Engine) AdvanceDay(ctx context.Context) (int, Date, error) {
	today := e.Calendar.Current()
	var shipped []Order
	err := e.Store.WithTx(ctx, func(tx Tx) error {
		var err error
		shipped, err = tx.ShipOrdersOn(ctx, today)
		return err
	})
	if err != nil {
		return 0, today, err
	}
	next := e.Calendar.Advance()
	for _, o := range shipped {
		e.Events.OrderShipped(o, today)
	}
	e.logger().Info("day advanced",
		zap.String("shipped_on", today.String()),
		zap.String("new_date", next.String()),
		zap.Int("shipped_orders", len(shipped)))
	return len(shipped), next, nil
}

// ExpireStaleOrders hard-deletes active orders whose date predates the current
// day, returning their reserved stock first. Run once at process start.
func (e *Engine) ExpireStaleOrders(ctx context.Context) (int, error) {
	today := e.Calendar.Current()
	var n int
	err := e.Store.WithTx(ctx, func(tx Tx) error {
		stale, err := tx.ActiveOrdersBefore(ctx, today)
		if err != nil {
			return err
		}
		for _, o := range stale {
			items, err := tx.ItemsByOrder(ctx, o.ID)
			if err != nil {
				return err
			}
			for _, it := range items {
				if _, err := tx.AdjustStock(ctx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
			if err := tx.DeleteOrder(ctx, o.ID); err != nil {
				return err
			}
		}
		n = len(stale)
		return nil
	})
	return n, err
}

func (e *Engine) ListProducts(ctx context.Context) ([]Product, error) {
	return e.Store.ListProducts(ctx)
}

// ListOrders returns active orders dated today or later, each with its items.
// Orders whose date has passed without shipping drop out via the date filter.
func (e *Engine) ListOrders(ctx context.Context) ([]OrderWithItems, error) {
	orders, err := e.Store.ListActiveOrders(ctx, e.Calendar.Current())
	if err != nil {
		return nil, err
	}
	out := make([]OrderWithItems, 0, len(orders))
	for _, o := range orders {
		items, err := e.Store.ListOrderItems(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []ItemDetail{}
		}
		out = append(out, OrderWithItems{Order: o, Items: items})
	}
	return out, nil
}

func (e *Engine) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}
