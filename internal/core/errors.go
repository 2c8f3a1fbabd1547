package core

import "fmt"

// ValidationError marks a request rejected before any persistence.
// The web adapter maps it to HTTP 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError marks an unknown referenced entity (customer, product,
// assignment). The web adapter maps it to HTTP 404.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Ref)
}

// InsufficientStockError rejects an entire sale when any line exceeds
// the available quantity for its stock type. No partial sales exist.
type InsufficientStockError struct {
	ProductName string
	StockType   string // "full cylinders", "empty cylinders", "gas stock" or "stock"
	Available   int64
	Required    int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient %s for %s: available %d, required %d",
		e.StockType, e.ProductName, e.Available, e.Required)
}
