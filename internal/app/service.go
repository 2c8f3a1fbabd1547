package app

import (
	"context"

	"cylinder-backoffice/internal/core"
)

// ApplicationService is the single facade the web adapter talks to.
// It exists so handlers can be tested against a stub without a
// database.
type ApplicationService interface {
	Health(ctx context.Context) error

	// Sales
	ListSales(ctx context.Context) ([]core.Sale, error)
	CreateSale(ctx context.Context, input core.SaleInput) (*core.Sale, error)

	// Master data
	ListCustomers(ctx context.Context) ([]core.Customer, error)
	CreateCustomer(ctx context.Context, input core.CustomerInput) (*core.Customer, error)
	ListProducts(ctx context.Context) ([]core.Product, error)
	CreateProduct(ctx context.Context, input core.ProductInput) (*core.Product, error)
	ListEmployees(ctx context.Context) ([]core.Employee, error)

	// Inventory
	GetStockLevels(ctx context.Context) ([]core.StockLevel, error)

	// Stock assignments
	ListAssignments(ctx context.Context) ([]core.StockAssignment, error)
	CreateAssignment(ctx context.Context, employeeID, productID int, quantity int64, assignedBy int) (*core.StockAssignment, error)
	ReceiveAssignment(ctx context.Context, assignmentID int) (*core.StockAssignment, error)
	RejectAssignment(ctx context.Context, assignmentID int) (*core.StockAssignment, error)

	// Notifications
	ListNotifications(ctx context.Context, recipientID int) ([]core.Notification, error)

	// Reporting
	GetDailyStockReport(ctx context.Context, date string) (*core.DSReport, error)
	GetProfitLoss(ctx context.Context, from, to string) (*core.PLReport, error)

	// Maintenance
	RetrySideEffects(ctx context.Context) (retried, dead int, err error)
}
