package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DailySalesService maintains the per-day per-product rollup counters
// consumed by the daily stock report and profit/loss. Counters are
// upsert-and-increment only; repeated sales on the same day accumulate
// monotonically. Not authoritative inventory.
type DailySalesService interface {
	// RecordLine folds one persisted sale line into the rollup. A gas
	// line with a resolved cylinder link additionally records the full
	// cylinder handed over on the cylinder product's row, without
	// counting it as a direct cylinder sale.
	RecordLine(ctx context.Context, line PersistedLine) error
	// RowsForDate returns the rollup rows for one day, product names
	// populated.
	RowsForDate(ctx context.Context, date string) ([]DailySalesRow, error)
}

type dailySalesService struct {
	pool *pgxpool.Pool
}

func NewDailySalesService(pool *pgxpool.Pool) DailySalesService {
	return &dailySalesService{pool: pool}
}

// RecordLine folds one line in a single transaction: the rollup rows a
// line touches land together or not at all, so a dead-lettered line can
// be replayed without double counting.
func (s *dailySalesService) RecordLine(ctx context.Context, line PersistedLine) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin daily sales transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.recordLine(ctx, tx, line); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit daily sales: %w", err)
	}
	return nil
}

func (s *dailySalesService) recordLine(ctx context.Context, q querier, line PersistedLine) error {
	switch line.Category {
	case CategoryGas:
		if err := s.increment(ctx, q, line.SaleDate, line.ProductID,
			"gas_sales_quantity", "gas_sales_amount", line.Quantity, line.LineTotal); err != nil {
			return err
		}
		if line.LinkedCylinderProductID != nil {
			// Cylinder-side usage: a full cylinder went out with the gas.
			// Quantity only — the money belongs to the gas line.
			if err := s.increment(ctx, q, line.SaleDate, *line.LinkedCylinderProductID,
				"full_cylinder_sales_quantity", "", line.Quantity, decimal.Zero); err != nil {
				return err
			}
		}
		return nil

	case CategoryCylinder:
		qtyCol, amtCol := "full_cylinder_sales_quantity", "full_cylinder_sales_amount"
		if line.CylinderStatus == CylinderEmpty {
			qtyCol, amtCol = "empty_cylinder_sales_quantity", "empty_cylinder_sales_amount"
		}
		if err := s.increment(ctx, q, line.SaleDate, line.ProductID, qtyCol, amtCol, line.Quantity, line.LineTotal); err != nil {
			return err
		}
		return s.increment(ctx, q, line.SaleDate, line.ProductID,
			"cylinder_sales_quantity", "cylinder_sales_amount", line.Quantity, line.LineTotal)

	default:
		// Non-gas, non-cylinder lines don't feed the cylinder DSR rollup.
		return nil
	}
}

// increment upserts one (date, product) row bumping a quantity column
// and, when amountCol is non-empty, the matching amount column.
func (s *dailySalesService) increment(ctx context.Context, q querier, date string, productID int,
	qtyCol, amountCol string, qty int64, amount decimal.Decimal) error {

	var query string
	var args []any
	if amountCol == "" {
		query = fmt.Sprintf(`
			INSERT INTO daily_sales (sale_date, product_id, %s)
			VALUES ($1, $2, $3)
			ON CONFLICT (sale_date, product_id)
			DO UPDATE SET %s = daily_sales.%s + EXCLUDED.%s
		`, qtyCol, qtyCol, qtyCol, qtyCol)
		args = []any{date, productID, qty}
	} else {
		query = fmt.Sprintf(`
			INSERT INTO daily_sales (sale_date, product_id, %s, %s)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (sale_date, product_id)
			DO UPDATE SET %s = daily_sales.%s + EXCLUDED.%s,
			              %s = daily_sales.%s + EXCLUDED.%s
		`, qtyCol, amountCol, qtyCol, qtyCol, qtyCol, amountCol, amountCol, amountCol)
		args = []any{date, productID, qty, amount}
	}

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert daily sales for product %d on %s: %w", productID, date, err)
	}
	return nil
}

func (s *dailySalesService) RowsForDate(ctx context.Context, date string) ([]DailySalesRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ds.sale_date::text, ds.product_id, p.name, p.category,
		       ds.gas_sales_quantity, ds.gas_sales_amount,
		       ds.full_cylinder_sales_quantity, ds.full_cylinder_sales_amount,
		       ds.empty_cylinder_sales_quantity, ds.empty_cylinder_sales_amount,
		       ds.cylinder_sales_quantity, ds.cylinder_sales_amount
		FROM daily_sales ds
		JOIN products p ON p.id = ds.product_id
		WHERE ds.sale_date = $1
		ORDER BY p.name
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily sales for %s: %w", date, err)
	}
	defer rows.Close()

	var out []DailySalesRow
	for rows.Next() {
		var r DailySalesRow
		if err := rows.Scan(&r.SaleDate, &r.ProductID, &r.ProductName, &r.Category,
			&r.GasSalesQuantity, &r.GasSalesAmount,
			&r.FullCylinderSalesQuantity, &r.FullCylinderSalesAmount,
			&r.EmptyCylinderSalesQuantity, &r.EmptyCylinderSalesAmount,
			&r.CylinderSalesQuantity, &r.CylinderSalesAmount); err != nil {
			return nil, fmt.Errorf("failed to scan daily sales row: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
