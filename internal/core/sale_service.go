package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the Postgres duplicate-key SQLSTATE.
const pgUniqueViolation = "23505"

// SaleService runs the checkout flow: validate, gate on stock
// availability, resolve cylinder/gas linkages, persist the sale under a
// fresh invoice number (retrying collisions), then fire the post-commit
// bookkeeping. The sale response only reflects whether the order record
// was committed; bookkeeping failures are logged and dead-lettered, not
// surfaced.
type SaleService interface {
	CreateSale(ctx context.Context, input SaleInput) (*Sale, error)
	GetSale(ctx context.Context, saleID int) (*Sale, error)
	// ListSales returns all sales newest-first with customer and product
	// names populated.
	ListSales(ctx context.Context) ([]Sale, error)
}

type saleService struct {
	pool     *pgxpool.Pool
	invoices InvoiceService
	checker  *StockChecker
	linkage  LinkageResolver
	effects  *SideEffectRunner
}

func NewSaleService(pool *pgxpool.Pool, invoices InvoiceService, checker *StockChecker,
	linkage LinkageResolver, effects *SideEffectRunner) SaleService {
	return &saleService{
		pool:     pool,
		invoices: invoices,
		checker:  checker,
		linkage:  linkage,
		effects:  effects,
	}
}

// validateSaleInput rejects structurally bad checkouts before touching
// the database. Returns a ValidationError describing the first problem.
func validateSaleInput(input SaleInput) error {
	if input.CustomerID == 0 {
		return &ValidationError{Msg: "customer is required"}
	}
	if len(input.Items) == 0 {
		return &ValidationError{Msg: "at least one item is required"}
	}
	if input.TotalAmount.IsZero() {
		return &ValidationError{Msg: "total amount is required"}
	}
	if input.TotalAmount.IsNegative() {
		return &ValidationError{Msg: "total amount cannot be negative"}
	}
	for i, item := range input.Items {
		if item.ProductID == 0 {
			return &ValidationError{Msg: fmt.Sprintf("item %d: product is required", i+1)}
		}
		if item.Quantity <= 0 {
			return &ValidationError{Msg: fmt.Sprintf("item %d: quantity must be positive", i+1)}
		}
		if item.UnitPrice.IsNegative() {
			return &ValidationError{Msg: fmt.Sprintf("item %d: price cannot be negative", i+1)}
		}
	}
	return nil
}

func (s *saleService) CreateSale(ctx context.Context, input SaleInput) (*Sale, error) {
	if err := validateSaleInput(input); err != nil {
		return nil, err
	}

	// Resolve customer before anything is written.
	var customerID int
	err := s.pool.QueryRow(ctx, "SELECT id FROM customers WHERE id = $1", input.CustomerID).Scan(&customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "customer", Ref: fmt.Sprintf("%d", input.CustomerID)}
		}
		return nil, fmt.Errorf("failed to resolve customer: %w", err)
	}

	// Availability gate: all-or-nothing, no partial sales.
	resolved, err := s.checker.Check(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	// Resolve cylinder/gas pairings. Heuristic misses are silent; the
	// line simply carries no linkage and the conversion is skipped.
	for i := range resolved {
		line := &resolved[i]
		switch {
		case line.category == CategoryGas:
			linked, err := s.linkage.CylinderForGas(ctx, line.product, input.Items[i].CylinderProductID)
			if err != nil {
				return nil, err
			}
			line.linkedCylinder = linked
		case line.category == CategoryCylinder && line.cylinderStatus == CylinderFull:
			linked, err := s.linkage.GasForCylinder(ctx, line.product, input.Items[i].GasProductID)
			if err != nil {
				return nil, err
			}
			line.linkedGas = linked
		}
	}

	saleID, err := s.persistSale(ctx, input, resolved)
	if err != nil {
		return nil, err
	}

	// Post-commit bookkeeping: best-effort, each step in its own
	// failure boundary. The sale is already committed either way.
	saleDate := time.Now().Format("2006-01-02")
	persisted := make([]PersistedLine, 0, len(resolved))
	for _, line := range resolved {
		persisted = append(persisted, PersistedLine{
			SaleID:                  saleID,
			ProductID:               line.product.ID,
			Category:                line.category,
			CylinderStatus:          line.cylinderStatus,
			Quantity:                line.quantity,
			UnitPrice:               line.unitPrice,
			LineTotal:               line.lineTotal,
			LinkedCylinderProductID: line.linkedCylinder,
			LinkedGasProductID:      line.linkedGas,
			SaleDate:                saleDate,
		})
	}
	s.effects.ApplySaleEffects(ctx, persisted)

	return s.GetSale(ctx, saleID)
}

// persistSale writes the sale and its lines in one transaction under a
// fresh invoice number, retrying with fallback numbers on duplicate-key
// collisions up to the attempt ceiling.
func (s *saleService) persistSale(ctx context.Context, input SaleInput, resolved []resolvedLine) (int, error) {
	var lastErr error
	for attempt := 0; attempt < maxInvoiceAttempts; attempt++ {
		var number string
		var err error
		if attempt == 0 {
			number, err = s.invoices.NextNumber(ctx)
		} else {
			number, err = s.invoices.FallbackNumber(ctx)
		}
		if err != nil {
			return 0, err
		}

		saleID, err := s.insertSale(ctx, number, input, resolved)
		if err == nil {
			return saleID, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			lastErr = err
			continue
		}
		return 0, err
	}
	return 0, fmt.Errorf("failed to persist sale after %d invoice number attempts: %w", maxInvoiceAttempts, lastErr)
}

func (s *saleService) insertSale(ctx context.Context, invoiceNumber string, input SaleInput, resolved []resolvedLine) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "cash"
	}
	paymentStatus := input.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = "paid"
	}

	var saleID int
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (invoice_number, customer_id, total_amount, payment_method, payment_status, received_amount, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, invoiceNumber, input.CustomerID, input.TotalAmount,
		paymentMethod, paymentStatus, input.ReceivedAmount, input.Notes).Scan(&saleID)
	if err != nil {
		return 0, err
	}

	for i, line := range resolved {
		_, err = tx.Exec(ctx, `
			INSERT INTO sale_items (sale_id, line_number, product_id, category, cylinder_size,
			                        cylinder_status, quantity, unit_price, line_total,
			                        linked_cylinder_product_id, linked_gas_product_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, saleID, i+1, line.product.ID, line.category, line.cylinderSize,
			line.cylinderStatus, line.quantity, line.unitPrice, line.lineTotal,
			line.linkedCylinder, line.linkedGas)
		if err != nil {
			return 0, fmt.Errorf("failed to insert sale line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit sale: %w", err)
	}
	return saleID, nil
}

func (s *saleService) GetSale(ctx context.Context, saleID int) (*Sale, error) {
	var sale Sale
	err := s.pool.QueryRow(ctx, `
		SELECT s.id, s.invoice_number, s.customer_id, c.name,
		       s.total_amount, s.payment_method, s.payment_status,
		       s.received_amount, s.notes, s.created_at
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1
	`, saleID).Scan(&sale.ID, &sale.InvoiceNumber, &sale.CustomerID, &sale.CustomerName,
		&sale.TotalAmount, &sale.PaymentMethod, &sale.PaymentStatus,
		&sale.ReceivedAmount, &sale.Notes, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "sale", Ref: fmt.Sprintf("%d", saleID)}
		}
		return nil, fmt.Errorf("failed to fetch sale %d: %w", saleID, err)
	}

	items, err := s.fetchSaleItems(ctx, saleID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

func (s *saleService) ListSales(ctx context.Context) ([]Sale, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.invoice_number, s.customer_id, c.name,
		       s.total_amount, s.payment_method, s.payment_status,
		       s.received_amount, s.notes, s.created_at
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		ORDER BY s.created_at DESC, s.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.InvoiceNumber, &sale.CustomerID, &sale.CustomerName,
			&sale.TotalAmount, &sale.PaymentMethod, &sale.PaymentStatus,
			&sale.ReceivedAmount, &sale.Notes, &sale.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	rows.Close()

	for i := range sales {
		items, err := s.fetchSaleItems(ctx, sales[i].ID)
		if err != nil {
			return nil, err
		}
		sales[i].Items = items
	}
	return sales, nil
}

func (s *saleService) fetchSaleItems(ctx context.Context, saleID int) ([]SaleItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT si.id, si.sale_id, si.line_number, si.product_id, p.name,
		       si.category, si.cylinder_size, si.cylinder_status,
		       si.quantity, si.unit_price, si.line_total,
		       si.linked_cylinder_product_id, si.linked_gas_product_id
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = $1
		ORDER BY si.line_number
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}
	defer rows.Close()

	var items []SaleItem
	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.LineNumber, &item.ProductID, &item.ProductName,
			&item.Category, &item.CylinderSize, &item.CylinderStatus,
			&item.Quantity, &item.UnitPrice, &item.LineTotal,
			&item.LinkedCylinderProductID, &item.LinkedGasProductID); err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}
