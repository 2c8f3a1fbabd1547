package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a recorded checkout. Immutable once written; the invoice number
// is the human-facing identifier, distinct from the database id.
type Sale struct {
	ID             int             `json:"id"`
	InvoiceNumber  string          `json:"invoice_number"`
	CustomerID     int             `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentStatus  string          `json:"payment_status"`
	ReceivedAmount decimal.Decimal `json:"received_amount"`
	Notes          string          `json:"notes"`
	Items          []SaleItem      `json:"items"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SaleItem is one line of a sale. Category and cylinder fields are
// snapshots taken at checkout so later catalog edits don't rewrite
// history. LinkedCylinderProductID / LinkedGasProductID record the
// resolved pairing used for cylinder cross-tracking in daily reports.
type SaleItem struct {
	ID                      int             `json:"id"`
	SaleID                  int             `json:"sale_id"`
	LineNumber              int             `json:"line_number"`
	ProductID               int             `json:"product_id"`
	ProductName             string          `json:"product_name"`
	Category                string          `json:"category"`
	CylinderSize            string          `json:"cylinder_size"`
	CylinderStatus          string          `json:"cylinder_status"`
	Quantity                int64           `json:"quantity"`
	UnitPrice               decimal.Decimal `json:"unit_price"`
	LineTotal               decimal.Decimal `json:"line_total"`
	LinkedCylinderProductID *int            `json:"linked_cylinder_product_id,omitempty"`
	LinkedGasProductID      *int            `json:"linked_gas_product_id,omitempty"`
}

// SaleItemInput is one requested cart line.
// Category, CylinderSize and CylinderStatus may be omitted; they are
// snapshotted from the product when absent. CylinderProductID /
// GasProductID are optional explicit pairings that short-circuit the
// name-similarity linkage heuristics.
type SaleItemInput struct {
	ProductID         int
	Quantity          int64
	UnitPrice         decimal.Decimal
	LineTotal         decimal.Decimal
	Category          string
	CylinderSize      string
	CylinderStatus    string
	CylinderProductID *int
	CylinderName      string
	GasProductID      *int
}

// SaleInput is a checkout request.
type SaleInput struct {
	CustomerID     int
	Items          []SaleItemInput
	TotalAmount    decimal.Decimal
	PaymentMethod  string
	PaymentStatus  string
	ReceivedAmount decimal.Decimal
	Notes          string
}

// resolvedLine is a cart line after product resolution, availability
// checking and linkage resolution, ready to persist.
type resolvedLine struct {
	product        Product
	quantity       int64
	unitPrice      decimal.Decimal
	lineTotal      decimal.Decimal
	category       string
	cylinderSize   string
	cylinderStatus string
	linkedCylinder *int
	linkedGas      *int
}

// PersistedLine is the post-commit view of a sale line handed to the
// inventory mutator and daily sales aggregator. It is JSON-serializable
// so failed side effects can be dead-lettered and retried verbatim.
type PersistedLine struct {
	SaleID                  int             `json:"sale_id"`
	ProductID               int             `json:"product_id"`
	Category                string          `json:"category"`
	CylinderStatus          string          `json:"cylinder_status"`
	Quantity                int64           `json:"quantity"`
	UnitPrice               decimal.Decimal `json:"unit_price"`
	LineTotal               decimal.Decimal `json:"line_total"`
	LinkedCylinderProductID *int            `json:"linked_cylinder_product_id,omitempty"`
	LinkedGasProductID      *int            `json:"linked_gas_product_id,omitempty"`
	SaleDate                string          `json:"sale_date"` // YYYY-MM-DD
}

// DailySalesRow is the per-day per-product rollup used by reporting.
// Counters only ever accumulate; rows are never overwritten.
type DailySalesRow struct {
	SaleDate                   string          `json:"sale_date"`
	ProductID                  int             `json:"product_id"`
	ProductName                string          `json:"product_name"`
	Category                   string          `json:"category"`
	GasSalesQuantity           int64           `json:"gas_sales_quantity"`
	GasSalesAmount             decimal.Decimal `json:"gas_sales_amount"`
	FullCylinderSalesQuantity  int64           `json:"full_cylinder_sales_quantity"`
	FullCylinderSalesAmount    decimal.Decimal `json:"full_cylinder_sales_amount"`
	EmptyCylinderSalesQuantity int64           `json:"empty_cylinder_sales_quantity"`
	EmptyCylinderSalesAmount   decimal.Decimal `json:"empty_cylinder_sales_amount"`
	CylinderSalesQuantity      int64           `json:"cylinder_sales_quantity"`
	CylinderSalesAmount        decimal.Decimal `json:"cylinder_sales_amount"`
}
