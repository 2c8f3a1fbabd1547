package app

import (
	"context"
	"log"
	"time"

	"cylinder-backoffice/internal/cache"
	"cylinder-backoffice/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

// stockLevelsKey and stockLevelsTTL control the cached stock snapshot.
// Every write that moves stock invalidates the key.
const (
	stockLevelsKey = "stock:levels"
	stockLevelsTTL = 30 * time.Second
)

type appService struct {
	pool          *pgxpool.Pool
	sales         core.SaleService
	catalog       core.CatalogService
	inventory     core.InventoryService
	assignments   core.AssignmentService
	notifications core.NotificationService
	reporting     core.ReportingService
	effects       *core.SideEffectRunner
	stockCache    cache.StockCache
}

// NewAppService wires the core services behind the ApplicationService
// facade.
func NewAppService(pool *pgxpool.Pool, sales core.SaleService, catalog core.CatalogService,
	inventory core.InventoryService, assignments core.AssignmentService,
	notifications core.NotificationService, reporting core.ReportingService,
	effects *core.SideEffectRunner, stockCache cache.StockCache) ApplicationService {

	if stockCache == nil {
		stockCache = cache.NoopStockCache{}
	}
	return &appService{
		pool:          pool,
		sales:         sales,
		catalog:       catalog,
		inventory:     inventory,
		assignments:   assignments,
		notifications: notifications,
		reporting:     reporting,
		effects:       effects,
		stockCache:    stockCache,
	}
}

func (s *appService) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func (s *appService) ListSales(ctx context.Context) ([]core.Sale, error) {
	return s.sales.ListSales(ctx)
}

func (s *appService) CreateSale(ctx context.Context, input core.SaleInput) (*core.Sale, error) {
	sale, err := s.sales.CreateSale(ctx, input)
	if err != nil {
		return nil, err
	}
	s.invalidateStock(ctx)
	return sale, nil
}

// ── Master data ───────────────────────────────────────────────────────────────

func (s *appService) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	return s.catalog.ListCustomers(ctx)
}

func (s *appService) CreateCustomer(ctx context.Context, input core.CustomerInput) (*core.Customer, error) {
	return s.catalog.CreateCustomer(ctx, input)
}

func (s *appService) ListProducts(ctx context.Context) ([]core.Product, error) {
	return s.catalog.ListProducts(ctx)
}

func (s *appService) CreateProduct(ctx context.Context, input core.ProductInput) (*core.Product, error) {
	product, err := s.catalog.CreateProduct(ctx, input)
	if err != nil {
		return nil, err
	}
	s.invalidateStock(ctx)
	return product, nil
}

func (s *appService) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	return s.catalog.ListEmployees(ctx)
}

// ── Inventory ─────────────────────────────────────────────────────────────────

func (s *appService) GetStockLevels(ctx context.Context) ([]core.StockLevel, error) {
	if levels, ok, err := s.stockCache.Get(ctx, stockLevelsKey); err == nil && ok {
		return levels, nil
	} else if err != nil {
		log.Printf("stock cache read failed: %v", err)
	}

	levels, err := s.inventory.GetStockLevels(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.stockCache.Set(ctx, stockLevelsKey, levels, stockLevelsTTL); err != nil {
		log.Printf("stock cache write failed: %v", err)
	}
	return levels, nil
}

func (s *appService) invalidateStock(ctx context.Context) {
	if err := s.stockCache.Invalidate(ctx, stockLevelsKey); err != nil {
		log.Printf("stock cache invalidation failed: %v", err)
	}
}

// ── Stock assignments ─────────────────────────────────────────────────────────

func (s *appService) ListAssignments(ctx context.Context) ([]core.StockAssignment, error) {
	return s.assignments.List(ctx)
}

func (s *appService) CreateAssignment(ctx context.Context, employeeID, productID int, quantity int64, assignedBy int) (*core.StockAssignment, error) {
	return s.assignments.Create(ctx, employeeID, productID, quantity, assignedBy)
}

func (s *appService) ReceiveAssignment(ctx context.Context, assignmentID int) (*core.StockAssignment, error) {
	assignment, err := s.assignments.Receive(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	s.invalidateStock(ctx)
	return assignment, nil
}

func (s *appService) RejectAssignment(ctx context.Context, assignmentID int) (*core.StockAssignment, error) {
	return s.assignments.Reject(ctx, assignmentID)
}

// ── Notifications ─────────────────────────────────────────────────────────────

func (s *appService) ListNotifications(ctx context.Context, recipientID int) ([]core.Notification, error) {
	return s.notifications.ListForRecipient(ctx, recipientID)
}

// ── Reporting ─────────────────────────────────────────────────────────────────

func (s *appService) GetDailyStockReport(ctx context.Context, date string) (*core.DSReport, error) {
	return s.reporting.GetDailyStockReport(ctx, date)
}

func (s *appService) GetProfitLoss(ctx context.Context, from, to string) (*core.PLReport, error) {
	return s.reporting.GetProfitLoss(ctx, from, to)
}

// ── Maintenance ───────────────────────────────────────────────────────────────

func (s *appService) RetrySideEffects(ctx context.Context) (int, int, error) {
	retried, dead, err := s.effects.RetryPending(ctx)
	if err == nil && retried > 0 {
		s.invalidateStock(ctx)
	}
	return retried, dead, err
}
