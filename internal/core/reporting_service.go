package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// DSRRow reconciles one product for one day: what the rollup says was
// sold against the closing counters the inventory currently holds.
// Opening figures are derived (closing + sold + assigned out that day),
// so a side-effect failure that skipped a deduction shows up as an
// opening/closing mismatch. AssignedOut counts assignments the employee
// confirmed (resolved) on that date; pending assignments move nothing.
type DSRRow struct {
	ProductID          int             `json:"product_id"`
	ProductName        string          `json:"product_name"`
	Category           string          `json:"category"`
	GasSold            int64           `json:"gas_sold"`
	FullCylindersSold  int64           `json:"full_cylinders_sold"`
	EmptyCylindersSold int64           `json:"empty_cylinders_sold"`
	AssignedOut        int64           `json:"assigned_out"`
	SalesAmount        decimal.Decimal `json:"sales_amount"`
	ClosingStock       int64           `json:"closing_stock"`
	ClosingEmpty       int64           `json:"closing_empty"`
	ClosingFull        int64           `json:"closing_full"`
	OpeningStock       int64           `json:"opening_stock"`
	OpeningFull        int64           `json:"opening_full"`
}

// DSReport is the daily stock report for one date.
type DSReport struct {
	Date string   `json:"date"`
	Rows []DSRRow `json:"rows"`
}

// PLLine is one product's contribution to the profit/loss report.
type PLLine struct {
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
	Profit      decimal.Decimal `json:"profit"`
}

// PLReport is revenue versus cost over a date range. Cost is quantity ×
// the product's current cost price — a snapshot costing, not FIFO.
type PLReport struct {
	From         string          `json:"from"`
	To           string          `json:"to"`
	Lines        []PLLine        `json:"lines"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only reporting over sales, the daily
// rollup and the inventory counters.
type ReportingService interface {
	// GetDailyStockReport builds the DSR for a date (YYYY-MM-DD; empty
	// means today).
	GetDailyStockReport(ctx context.Context, date string) (*DSReport, error)
	// GetProfitLoss aggregates sale lines between from and to inclusive
	// (empty bounds are open).
	GetProfitLoss(ctx context.Context, from, to string) (*PLReport, error)
}

type reportingService struct {
	pool  *pgxpool.Pool
	daily DailySalesService
	inv   InventoryService
}

func NewReportingService(pool *pgxpool.Pool, daily DailySalesService, inv InventoryService) ReportingService {
	return &reportingService{pool: pool, daily: daily, inv: inv}
}

func (s *reportingService) GetDailyStockReport(ctx context.Context, date string) (*DSReport, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	rollup, err := s.daily.RowsForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	levels, err := s.inv.GetStockLevels(ctx)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[int]StockLevel, len(levels))
	for _, sl := range levels {
		byProduct[sl.ProductID] = sl
	}
	assigned, err := s.assignedOutByProduct(ctx, date)
	if err != nil {
		return nil, err
	}

	report := &DSReport{Date: date}
	for _, r := range rollup {
		sl := byProduct[r.ProductID]
		row := DSRRow{
			ProductID:          r.ProductID,
			ProductName:        r.ProductName,
			Category:           r.Category,
			GasSold:            r.GasSalesQuantity,
			FullCylindersSold:  r.FullCylinderSalesQuantity,
			EmptyCylindersSold: r.EmptyCylinderSalesQuantity,
			AssignedOut:        assigned[r.ProductID],
			SalesAmount:        r.GasSalesAmount.Add(r.CylinderSalesAmount),
			ClosingStock:       sl.CurrentStock,
			ClosingEmpty:       sl.AvailableEmpty,
			ClosingFull:        sl.AvailableFull,
		}
		// Derived opening balances: what the counters must have been for
		// today's sales and confirmed assignments to land on today's
		// closing figures. Received gas assignments drain gas stock,
		// received cylinder assignments drain full cylinders.
		row.OpeningStock = row.ClosingStock + row.GasSold
		row.OpeningFull = row.ClosingFull + row.FullCylindersSold
		switch r.Category {
		case CategoryGas:
			row.OpeningStock += row.AssignedOut
		case CategoryCylinder:
			row.OpeningFull += row.AssignedOut
		}
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

// assignedOutByProduct sums the assignments confirmed received on a
// date, keyed by product.
func (s *reportingService) assignedOutByProduct(ctx context.Context, date string) (map[int]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT product_id, SUM(quantity)
		FROM stock_assignments
		WHERE status = $1 AND resolved_at::date = $2
		GROUP BY product_id
	`, AssignmentReceived, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments for %s: %w", date, err)
	}
	defer rows.Close()

	out := make(map[int]int64)
	for rows.Next() {
		var productID int
		var qty int64
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, fmt.Errorf("failed to scan assignment sum: %w", err)
		}
		out[productID] = qty
	}
	return out, nil
}

func (s *reportingService) GetProfitLoss(ctx context.Context, from, to string) (*PLReport, error) {
	query := `
		SELECT p.id, p.name,
		       SUM(si.quantity),
		       SUM(si.line_total),
		       SUM(si.quantity * p.cost_price)
		FROM sale_items si
		JOIN sales s    ON s.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		WHERE 1=1
	`
	args := []any{}
	if from != "" {
		args = append(args, from)
		query += fmt.Sprintf(" AND s.created_at::date >= $%d", len(args))
	}
	if to != "" {
		args = append(args, to)
		query += fmt.Sprintf(" AND s.created_at::date <= $%d", len(args))
	}
	query += " GROUP BY p.id, p.name ORDER BY p.name"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profit/loss: %w", err)
	}
	defer rows.Close()

	report := &PLReport{From: from, To: to}
	for rows.Next() {
		var line PLLine
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.Quantity, &line.Revenue, &line.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan profit/loss line: %w", err)
		}
		line.Profit = line.Revenue.Sub(line.Cost)
		report.Lines = append(report.Lines, line)
		report.TotalRevenue = report.TotalRevenue.Add(line.Revenue)
		report.TotalCost = report.TotalCost.Add(line.Cost)
	}
	report.GrossProfit = report.TotalRevenue.Sub(report.TotalCost)
	return report, nil
}
