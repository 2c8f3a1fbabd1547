package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product categories. Gas and cylinder products carry category-specific
// stock counters on their inventory_items row; everything else uses the
// plain current_stock scalar on the product.
const (
	CategoryGas      = "gas"
	CategoryCylinder = "cylinder"
	CategoryOther    = "other"
)

// Cylinder fill states used on sale lines and inventory counters.
const (
	CylinderEmpty = "empty"
	CylinderFull  = "full"
)

// Customer is a sales customer master record.
type Customer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a catalog item. CurrentStock is the legacy scalar mirror:
// authoritative for the 'other' category, best-effort for gas/cylinder
// where the inventory_items counters are the source of truth.
type Product struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	CylinderSize string          `json:"cylinder_size"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	LeastPrice   decimal.Decimal `json:"least_price"`
	CurrentStock int64           `json:"current_stock"`
	CreatedAt    time.Time       `json:"created_at"`
}

// InventoryItem holds the authoritative per-product counters.
// CurrentStock is used for gas products; AvailableEmpty/AvailableFull
// for cylinders. Counters never go below zero: decrements clamp.
type InventoryItem struct {
	ID             int       `json:"id"`
	ProductID      int       `json:"product_id"`
	CurrentStock   int64     `json:"current_stock"`
	AvailableEmpty int64     `json:"available_empty"`
	AvailableFull  int64     `json:"available_full"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StockLevel is a read view of a product joined with its inventory counters.
type StockLevel struct {
	ProductID      int    `json:"product_id"`
	ProductName    string `json:"product_name"`
	Category       string `json:"category"`
	CylinderSize   string `json:"cylinder_size"`
	CurrentStock   int64  `json:"current_stock"`
	AvailableEmpty int64  `json:"available_empty"`
	AvailableFull  int64  `json:"available_full"`
}

// Employee is a delivery/field employee who can carry assigned stock.
type Employee struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Assignment statuses. Stock is deducted when the employee confirms
// receipt, never at assignment time.
const (
	AssignmentPending  = "pending"
	AssignmentReceived = "received"
	AssignmentRejected = "rejected"
)

// StockAssignment records stock handed to an employee for field sales.
type StockAssignment struct {
	ID           int        `json:"id"`
	EmployeeID   int        `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`
	ProductID    int        `json:"product_id"`
	ProductName  string     `json:"product_name"`
	Quantity     int64      `json:"quantity"`
	Status       string     `json:"status"`
	AssignedBy   int        `json:"assigned_by"`
	AssignedAt   time.Time  `json:"assigned_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// Notification is a minimal in-app notification record.
type Notification struct {
	ID          int       `json:"id"`
	RecipientID int       `json:"recipient_id"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}
