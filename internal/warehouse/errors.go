package warehouse

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidDate     = errors.New("order date cannot be before the current date")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// InsufficientStockError carries the quantity still available so the API can
// show it to the operator.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
