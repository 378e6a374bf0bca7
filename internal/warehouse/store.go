package warehouse

import "context"

// Store is the persistence boundary. WithTx runs fn inside a single
// transaction: a real BeginTx with row-level locking on Postgres, a serialized
// critical section with snapshot rollback in memory. fn returning an error
// rolls back every write made through the Tx.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, productID int64) (Product, error)
	// ListActiveOrders returns active orders with order_date >= from, ordered
	// by date.
	ListActiveOrders(ctx context.Context, from Date) ([]Order, error)
	// ListOrderItems returns an order's items joined with product names.
	ListOrderItems(ctx context.Context, orderID string) ([]ItemDetail, error)
}

// Tx exposes the record-level mutations the Engine composes. Implementations
// return ErrNotFound for absent records.
type Tx interface {
	// GetProductForUpdate reads a product and keeps it locked for the rest of
	// the transaction.
	GetProductForUpdate(ctx context.Context, productID int64) (Product, error)
	// AdjustStock atomically adds delta (signed) to a product's quantity and
	// returns the updated value. Callers pre-validate sufficiency; no negative
	// check happens here.
	AdjustStock(ctx context.Context, productID int64, delta int) (int, error)

	InsertOrder(ctx context.Context, o Order) error
	GetOrder(ctx context.Context, orderID string) (Order, error)
	UpdateOrder(ctx context.Context, orderID, customerName string, date Date) error
	// DeleteOrder removes the order and cascades to its items.
	DeleteOrder(ctx context.Context, orderID string) error
	ActiveOrdersBefore(ctx context.Context, cutoff Date) ([]Order, error)
	// ShipOrdersOn marks every active order dated day as shipped and returns
	// the affected orders.
	ShipOrdersOn(ctx context.Context, day Date) ([]Order, error)

	InsertItem(ctx context.Context, it OrderItem) error
	GetItem(ctx context.Context, itemID string) (OrderItem, error)
	UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error
	UpdateItemOrder(ctx context.Context, itemID, orderID string) error
	DeleteItem(ctx context.Context, itemID string) error
	ItemsByOrder(ctx context.Context, orderID string) ([]OrderItem, error)
}
