package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool and pgx.Tx the stock statements
// run against, so the same helpers serve pooled and transactional calls.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InventoryService owns the per-product stock counters. Every decrement
// clamps at zero (GREATEST in SQL): hitting the floor signals an
// inconsistency upstream but never produces a negative counter. The
// statements for one sale line or one assignment share a transaction,
// so a failed mutation applies nothing and can be replayed safely.
type InventoryService interface {
	// EnsureItem returns the inventory row for a product, lazily creating
	// it seeded from the product's legacy current_stock scalar.
	EnsureItem(ctx context.Context, productID int) (*InventoryItem, error)
	// GetItem returns the inventory row, or found=false when the product
	// has none yet.
	GetItem(ctx context.Context, productID int) (item *InventoryItem, found bool, err error)
	// ApplySaleLine applies the category-specific stock mutation for one
	// persisted sale line, all-or-nothing. Called post-commit; also the
	// retry target for dead-lettered side effects.
	ApplySaleLine(ctx context.Context, line PersistedLine) error
	// DeductForAssignment removes stock handed to an employee on receipt
	// confirmation. Assignments never touch stock before receipt.
	DeductForAssignment(ctx context.Context, productID int, quantity int64) error
	GetStockLevels(ctx context.Context) ([]StockLevel, error)
}

type inventoryService struct {
	pool *pgxpool.Pool
}

func NewInventoryService(pool *pgxpool.Pool) InventoryService {
	return &inventoryService{pool: pool}
}

func (s *inventoryService) EnsureItem(ctx context.Context, productID int) (*InventoryItem, error) {
	return s.ensureItem(ctx, s.pool, productID)
}

func (s *inventoryService) ensureItem(ctx context.Context, q querier, productID int) (*InventoryItem, error) {
	// Seed from the product scalar so pre-inventory catalogs self-heal.
	_, err := q.Exec(ctx, `
		INSERT INTO inventory_items (product_id, current_stock, available_empty, available_full)
		SELECT id, current_stock, 0, 0 FROM products WHERE id = $1
		ON CONFLICT (product_id) DO NOTHING
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure inventory item for product %d: %w", productID, err)
	}

	item, found, err := s.getItem(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("inventory item missing after ensure for product %d", productID)
	}
	return item, nil
}

func (s *inventoryService) GetItem(ctx context.Context, productID int) (*InventoryItem, bool, error) {
	return s.getItem(ctx, s.pool, productID)
}

func (s *inventoryService) getItem(ctx context.Context, q querier, productID int) (*InventoryItem, bool, error) {
	var item InventoryItem
	err := q.QueryRow(ctx, `
		SELECT id, product_id, current_stock, available_empty, available_full, updated_at
		FROM inventory_items
		WHERE product_id = $1
	`, productID).Scan(&item.ID, &item.ProductID, &item.CurrentStock,
		&item.AvailableEmpty, &item.AvailableFull, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch inventory item for product %d: %w", productID, err)
	}
	return &item, true, nil
}

// ApplySaleLine runs the line's statements in one transaction: a line
// that fails partway leaves no trace, so the dead-letter replay can
// re-run it without double-deducting the statements that had succeeded.
func (s *inventoryService) ApplySaleLine(ctx context.Context, line PersistedLine) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin inventory transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.applySaleLine(ctx, tx, line); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit inventory mutation: %w", err)
	}
	return nil
}

func (s *inventoryService) applySaleLine(ctx context.Context, q querier, line PersistedLine) error {
	switch line.Category {
	case CategoryGas:
		return s.applyGasSale(ctx, q, line)
	case CategoryCylinder:
		if line.CylinderStatus == CylinderEmpty {
			return s.applyEmptyCylinderSale(ctx, q, line)
		}
		return s.applyFullCylinderSale(ctx, q, line)
	default:
		return s.decrementProductStock(ctx, q, line.ProductID, line.Quantity)
	}
}

// applyGasSale deducts gas stock, flips the linked cylinder full→empty,
// and mirrors the deduction onto the legacy product scalar.
func (s *inventoryService) applyGasSale(ctx context.Context, q querier, line PersistedLine) error {
	if _, err := s.ensureItem(ctx, q, line.ProductID); err != nil {
		return err
	}
	if err := s.decrementItemGasStock(ctx, q, line.ProductID, line.Quantity); err != nil {
		return err
	}

	if line.LinkedCylinderProductID != nil {
		cylID := *line.LinkedCylinderProductID
		if _, err := s.ensureItem(ctx, q, cylID); err != nil {
			return err
		}
		// Full cylinder handed out, empty one comes back: net count conserved.
		_, err := q.Exec(ctx, `
			UPDATE inventory_items
			SET available_full  = GREATEST(available_full - $1, 0),
			    available_empty = available_empty + $1,
			    updated_at      = NOW()
			WHERE product_id = $2
		`, line.Quantity, cylID)
		if err != nil {
			return fmt.Errorf("failed to flip cylinder counters for product %d: %w", cylID, err)
		}
	}

	return s.decrementProductStock(ctx, q, line.ProductID, line.Quantity)
}

func (s *inventoryService) applyEmptyCylinderSale(ctx context.Context, q querier, line PersistedLine) error {
	if _, err := s.ensureItem(ctx, q, line.ProductID); err != nil {
		return err
	}
	_, err := q.Exec(ctx, `
		UPDATE inventory_items
		SET available_empty = GREATEST(available_empty - $1, 0), updated_at = NOW()
		WHERE product_id = $2
	`, line.Quantity, line.ProductID)
	if err != nil {
		return fmt.Errorf("failed to deduct empty cylinders for product %d: %w", line.ProductID, err)
	}
	return nil
}

// applyFullCylinderSale deducts full cylinders (the customer keeps the
// cylinder, so nothing returns to the empty side) and consumes the gas
// inside from the linked gas product's stock.
func (s *inventoryService) applyFullCylinderSale(ctx context.Context, q querier, line PersistedLine) error {
	if _, err := s.ensureItem(ctx, q, line.ProductID); err != nil {
		return err
	}
	_, err := q.Exec(ctx, `
		UPDATE inventory_items
		SET available_full = GREATEST(available_full - $1, 0), updated_at = NOW()
		WHERE product_id = $2
	`, line.Quantity, line.ProductID)
	if err != nil {
		return fmt.Errorf("failed to deduct full cylinders for product %d: %w", line.ProductID, err)
	}

	if line.LinkedGasProductID != nil {
		gasID := *line.LinkedGasProductID
		if _, err := s.ensureItem(ctx, q, gasID); err != nil {
			return err
		}
		if err := s.decrementItemGasStock(ctx, q, gasID, line.Quantity); err != nil {
			return err
		}
		if err := s.decrementProductStock(ctx, q, gasID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *inventoryService) decrementItemGasStock(ctx context.Context, q querier, productID int, qty int64) error {
	_, err := q.Exec(ctx, `
		UPDATE inventory_items
		SET current_stock = GREATEST(current_stock - $1, 0), updated_at = NOW()
		WHERE product_id = $2
	`, qty, productID)
	if err != nil {
		return fmt.Errorf("failed to deduct gas stock for product %d: %w", productID, err)
	}
	return nil
}

func (s *inventoryService) decrementProductStock(ctx context.Context, q querier, productID int, qty int64) error {
	_, err := q.Exec(ctx, `
		UPDATE products
		SET current_stock = GREATEST(current_stock - $1, 0)
		WHERE id = $2
	`, qty, productID)
	if err != nil {
		return fmt.Errorf("failed to deduct product stock for product %d: %w", productID, err)
	}
	return nil
}

func (s *inventoryService) DeductForAssignment(ctx context.Context, productID int, quantity int64) error {
	var category string
	err := s.pool.QueryRow(ctx, "SELECT category FROM products WHERE id = $1", productID).Scan(&category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Entity: "product", Ref: fmt.Sprintf("%d", productID)}
		}
		return fmt.Errorf("failed to resolve product %d: %w", productID, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin inventory transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	switch category {
	case CategoryGas:
		if _, err := s.ensureItem(ctx, tx, productID); err != nil {
			return err
		}
		if err := s.decrementItemGasStock(ctx, tx, productID, quantity); err != nil {
			return err
		}
	case CategoryCylinder:
		if _, err := s.ensureItem(ctx, tx, productID); err != nil {
			return err
		}
		// Field employees carry sellable (full) cylinders.
		_, err := tx.Exec(ctx, `
			UPDATE inventory_items
			SET available_full = GREATEST(available_full - $1, 0), updated_at = NOW()
			WHERE product_id = $2
		`, quantity, productID)
		if err != nil {
			return fmt.Errorf("failed to deduct assigned cylinders for product %d: %w", productID, err)
		}
	}
	if err := s.decrementProductStock(ctx, tx, productID, quantity); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit assignment deduction: %w", err)
	}
	return nil
}

func (s *inventoryService) GetStockLevels(ctx context.Context) ([]StockLevel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name, p.category, p.cylinder_size,
		       COALESCE(ii.current_stock, p.current_stock),
		       COALESCE(ii.available_empty, 0),
		       COALESCE(ii.available_full, 0)
		FROM products p
		LEFT JOIN inventory_items ii ON ii.product_id = p.id
		ORDER BY p.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var l StockLevel
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Category, &l.CylinderSize,
			&l.CurrentStock, &l.AvailableEmpty, &l.AvailableFull); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, l)
	}
	return levels, nil
}
