package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockChecker gates sale creation: every cart line must be coverable by
// the category-specific available quantity or the entire sale is
// rejected. The check and the later mutation are deliberately separate
// steps (no shared transaction); concurrent checkouts racing the same
// product is an accepted risk, and the zero-floor clamp in the mutator
// is the backstop.
type StockChecker struct {
	pool *pgxpool.Pool
	inv  InventoryService
}

func NewStockChecker(pool *pgxpool.Pool, inv InventoryService) *StockChecker {
	return &StockChecker{pool: pool, inv: inv}
}

// Check resolves every cart line against the catalog and verifies
// availability. Returns the resolved lines ready for persistence, or
// the first blocking error (NotFoundError / InsufficientStockError).
func (c *StockChecker) Check(ctx context.Context, items []SaleItemInput) ([]resolvedLine, error) {
	resolved := make([]resolvedLine, 0, len(items))

	for _, item := range items {
		product, err := c.fetchProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		category := item.Category
		if category == "" {
			category = product.Category
		}
		cylinderSize := item.CylinderSize
		if cylinderSize == "" {
			cylinderSize = product.CylinderSize
		}

		available, stockType, err := c.availableQuantity(ctx, product, category, item.CylinderStatus)
		if err != nil {
			return nil, err
		}
		if available < item.Quantity {
			return nil, &InsufficientStockError{
				ProductName: product.Name,
				StockType:   stockType,
				Available:   available,
				Required:    item.Quantity,
			}
		}

		lineTotal := item.LineTotal
		if lineTotal.IsZero() {
			lineTotal = item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity))
		}

		resolved = append(resolved, resolvedLine{
			product:        *product,
			quantity:       item.Quantity,
			unitPrice:      item.UnitPrice,
			lineTotal:      lineTotal,
			category:       category,
			cylinderSize:   cylinderSize,
			cylinderStatus: item.CylinderStatus,
		})
	}

	return resolved, nil
}

func (c *StockChecker) fetchProduct(ctx context.Context, productID int) (*Product, error) {
	var p Product
	err := c.pool.QueryRow(ctx, `
		SELECT id, name, category, cylinder_size, cost_price, least_price, current_stock, created_at
		FROM products
		WHERE id = $1
	`, productID).Scan(&p.ID, &p.Name, &p.Category, &p.CylinderSize,
		&p.CostPrice, &p.LeastPrice, &p.CurrentStock, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "product", Ref: fmt.Sprintf("%d", productID)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product %d: %w", productID, err)
	}
	return &p, nil
}

// availableQuantity returns the quantity sellable for one line and the
// human-readable stock type used in rejection messages.
func (c *StockChecker) availableQuantity(ctx context.Context, product *Product, category, cylinderStatus string) (int64, string, error) {
	switch category {
	case CategoryCylinder:
		item, found, err := c.inv.GetItem(ctx, product.ID)
		if err != nil {
			return 0, "", err
		}
		if found {
			switch cylinderStatus {
			case CylinderEmpty:
				return item.AvailableEmpty, "empty cylinders", nil
			case CylinderFull:
				return item.AvailableFull, "full cylinders", nil
			}
		}
		return product.CurrentStock, "stock", nil

	case CategoryGas:
		item, found, err := c.inv.GetItem(ctx, product.ID)
		if err != nil {
			return 0, "", err
		}
		if !found {
			// Self-healing lazy initialization seeded from the product
			// scalar; if even that fails, the scalar is the answer.
			item, err = c.inv.EnsureItem(ctx, product.ID)
			if err != nil {
				log.Printf("availability: lazy inventory init failed for product %d: %v", product.ID, err)
				return product.CurrentStock, "gas stock", nil
			}
		}
		return item.CurrentStock, "gas stock", nil

	default:
		return product.CurrentStock, "stock", nil
	}
}
