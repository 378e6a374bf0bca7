package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-warehouse-orders.git/internal/warehouse"
)

// Store implements warehouse.Store on pgx. Product rows are locked FOR UPDATE
// inside transactions so the check-then-adjust sequences cannot race.
type Store struct{ DB *pgxpool.Pool }

func (s *Store) WithTx(ctx context.Context, fn func(tx warehouse.Tx) error) error {
	dbtx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = dbtx.Rollback(ctx) }()
	if err := fn(&tx{q: dbtx}); err != nil {
		return err
	}
	return dbtx.Commit(ctx)
}

func (s *Store) ListProducts(ctx context.Context) ([]warehouse.Product, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, name, quantity, created_at FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []warehouse.Product
	for rows.Next() {
		var p warehouse.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, productID int64) (warehouse.Product, error) {
	var p warehouse.Product
	err := s.DB.QueryRow(ctx, `SELECT id, name, quantity, created_at FROM products WHERE id=$1`, productID).
		Scan(&p.ID, &p.Name, &p.Quantity, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return warehouse.Product{}, warehouse.ErrNotFound
	}
	return p, err
}

func (s *Store) ListActiveOrders(ctx context.Context, from warehouse.Date) ([]warehouse.Order, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, customer_name, order_date, status, created_at
		FROM orders
		WHERE status='active' AND order_date >= $1
		ORDER BY order_date, created_at`, from.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *Store) ListOrderItems(ctx context.Context, orderID string) ([]warehouse.ItemDetail, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, p.name
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id=$1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []warehouse.ItemDetail{}
	for rows.Next() {
		var d warehouse.ItemDetail
		if err := rows.Scan(&d.ID, &d.OrderID, &d.ProductID, &d.Quantity, &d.ProductName); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type tx struct{ q pgx.Tx }

func (t *tx) GetProductForUpdate(ctx context.Context, productID int64) (warehouse.Product, error) {
	var p warehouse.Product
	err := t.q.QueryRow(ctx, `SELECT id, name, quantity FROM products WHERE id=$1 FOR UPDATE`, productID).
		Scan(&p.ID, &p.Name, &p.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return warehouse.Product{}, warehouse.ErrNotFound
	}
	return p, err
}

func (t *tx) AdjustStock(ctx context.Context, productID int64, delta int) (int, error) {
	var quantity int
	err := t.q.QueryRow(ctx, `UPDATE products SET quantity = quantity + $2 WHERE id=$1 RETURNING quantity`,
		productID, delta).Scan(&quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, warehouse.ErrNotFound
	}
	return quantity, err
}

func (t *tx) InsertOrder(ctx context.Context, o warehouse.Order) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO orders(id, customer_name, order_date, status)
		VALUES ($1,$2,$3,$4)`,
		o.ID, o.CustomerName, o.OrderDate.Time(), string(o.Status))
	return err
}

func (t *tx) GetOrder(ctx context.Context, orderID string) (warehouse.Order, error) {
	var o warehouse.Order
	var d time.Time
	var st string
	err := t.q.QueryRow(ctx, `SELECT id, customer_name, order_date, status, created_at FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.CustomerName, &d, &st, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return warehouse.Order{}, warehouse.ErrNotFound
	}
	if err != nil {
		return warehouse.Order{}, err
	}
	o.OrderDate = warehouse.DateOf(d)
	o.Status = warehouse.Status(st)
	return o, nil
}

func (t *tx) UpdateOrder(ctx context.Context, orderID, customerName string, date warehouse.Date) error {
	ct, err := t.q.Exec(ctx, `UPDATE orders SET customer_name=$2, order_date=$3 WHERE id=$1`,
		orderID, customerName, date.Time())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return warehouse.ErrNotFound
	}
	return nil
}

func (t *tx) DeleteOrder(ctx context.Context, orderID string) error {
	// items go with the order via ON DELETE CASCADE
	ct, err := t.q.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return warehouse.ErrNotFound
	}
	return nil
}

func (t *tx) ActiveOrdersBefore(ctx context.Context, cutoff warehouse.Date) ([]warehouse.Order, error) {
	rows, err := t.q.Query(ctx, `
		SELECT id, customer_name, order_date, status, created_at
		FROM orders
		WHERE status='active' AND order_date < $1
		ORDER BY id`, cutoff.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (t *tx) ShipOrdersOn(ctx context.Context, day warehouse.Date) ([]warehouse.Order, error) {
	rows, err := t.q.Query(ctx, `
		UPDATE orders SET status='shipped'
		WHERE order_date=$1 AND status='active'
		RETURNING id, customer_name, order_date, status, created_at`, day.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (t *tx) InsertItem(ctx context.Context, it warehouse.OrderItem) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO order_items(id, order_id, product_id, quantity)
		VALUES ($1,$2,$3,$4)`,
		it.ID, it.OrderID, it.ProductID, it.Quantity)
	return err
}

func (t *tx) GetItem(ctx context.Context, itemID string) (warehouse.OrderItem, error) {
	var it warehouse.OrderItem
	err := t.q.QueryRow(ctx, `SELECT id, order_id, product_id, quantity FROM order_items WHERE id=$1`, itemID).
		Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return warehouse.OrderItem{}, warehouse.ErrNotFound
	}
	return it, err
}

func (t *tx) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	ct, err := t.q.Exec(ctx, `UPDATE order_items SET quantity=$2 WHERE id=$1`, itemID, quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return warehouse.ErrNotFound
	}
	return nil
}

func (t *tx) UpdateItemOrder(ctx context.Context, itemID, orderID string) error {
	ct, err := t.q.Exec(ctx, `UPDATE order_items SET order_id=$2 WHERE id=$1`, itemID, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return warehouse.ErrNotFound
	}
	return nil
}

func (t *tx) DeleteItem(ctx context.Context, itemID string) error {
	ct, err := t.q.Exec(ctx, `DELETE FROM order_items WHERE id=$1`, itemID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return warehouse.ErrNotFound
	}
	return nil
}

func (t *tx) ItemsByOrder(ctx context.Context, orderID string) ([]warehouse.OrderItem, error) {
	rows, err := t.q.Query(ctx, `SELECT id, order_id, product_id, quantity FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []warehouse.OrderItem
	for rows.Next() {
		var it warehouse.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanOrders(rows pgx.Rows) ([]warehouse.Order, error) {
	var out []warehouse.Order
	for rows.Next() {
		var o warehouse.Order
		var d time.Time
		var st string
		if err := rows.Scan(&o.ID, &o.CustomerName, &d, &st, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.OrderDate = warehouse.DateOf(d)
		o.Status = warehouse.Status(st)
		out = append(out, o)
	}
	return out, rows.Err()
}
