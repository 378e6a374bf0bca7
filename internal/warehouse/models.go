package warehouse

import "time"

type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"-"`
}

type Status string

const (
	StatusActive  Status = "active"
	StatusShipped Status = "shipped" // terminal; shipped orders are inert
)

type Order struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customer_name"`
	OrderDate    Date      `json:"order_date"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"-"`
}

type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ItemDetail is an order item joined with its product name, as listings render it.
type ItemDetail struct {
	OrderItem
	ProductName string `json:"product_name"`
}

// OrderWithItems is the shape of one entry in the orders listing.
type OrderWithItems struct {
	Order
	Items []ItemDetail `json:"items"`
}
