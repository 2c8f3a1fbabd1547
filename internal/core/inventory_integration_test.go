package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cylinder-backoffice/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func newAssignmentService(pool *pgxpool.Pool) (core.AssignmentService, core.InventoryService, core.NotificationService) {
	inv := core.NewInventoryService(pool)
	notifications := core.NewNotificationService(pool)
	return core.NewAssignmentService(pool, inv, notifications), inv, notifications
}

func TestInventory_LazyInitFromProductScalar(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	// HP Gas (product 4) is seeded without an inventory row.
	_, found, err := inv.GetItem(ctx, 4)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if found {
		t.Fatal("Expected no inventory item before EnsureItem")
	}

	item, err := inv.EnsureItem(ctx, 4)
	if err != nil {
		t.Fatalf("EnsureItem failed: %v", err)
	}
	if item.CurrentStock != 7 {
		t.Errorf("Expected stock seeded from product scalar (7), got %d", item.CurrentStock)
	}
	if item.AvailableEmpty != 0 || item.AvailableFull != 0 {
		t.Errorf("Expected zero cylinder counters, got empty=%d full=%d", item.AvailableEmpty, item.AvailableFull)
	}

	// Idempotent: re-running never resets counters.
	again, err := inv.EnsureItem(ctx, 4)
	if err != nil {
		t.Fatalf("Second EnsureItem failed: %v", err)
	}
	if again.ID != item.ID || again.CurrentStock != 7 {
		t.Errorf("EnsureItem must be idempotent, got %+v", again)
	}
}

func TestInventory_DecrementClampsAtZero(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	// Replaying a stale side effect can over-deduct; counters must floor
	// at zero instead of going negative or erroring.
	err := inv.ApplySaleLine(ctx, core.PersistedLine{
		SaleID:         1,
		ProductID:      2,
		Category:       core.CategoryCylinder,
		CylinderStatus: core.CylinderEmpty,
		Quantity:       99,
		SaleDate:       time.Now().Format("2006-01-02"),
	})
	if err != nil {
		t.Fatalf("ApplySaleLine failed: %v", err)
	}

	item := mustItem(t, ctx, inv, 2)
	if item.AvailableEmpty != 0 {
		t.Errorf("Expected empty counter clamped to 0, got %d", item.AvailableEmpty)
	}
	if item.AvailableFull != 10 {
		t.Errorf("Full counter must be untouched, got %d", item.AvailableFull)
	}
}

func TestInventory_GetStockLevels(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	levels, err := inv.GetStockLevels(ctx)
	if err != nil {
		t.Fatalf("GetStockLevels failed: %v", err)
	}
	byID := make(map[int]core.StockLevel, len(levels))
	for _, l := range levels {
		byID[l.ProductID] = l
	}

	if l := byID[2]; l.AvailableEmpty != 3 || l.AvailableFull != 10 {
		t.Errorf("Expected cylinder empty=3 full=10, got %+v", l)
	}
	// Products without an inventory row fall back to the scalar.
	if l := byID[4]; l.CurrentStock != 7 {
		t.Errorf("Expected HP Gas scalar fallback 7, got %+v", l)
	}
	if l := byID[3]; l.CurrentStock != 50 {
		t.Errorf("Expected Regulator scalar 50, got %+v", l)
	}
}

func TestAssignment_ReceiveDeductsStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	assignments, inv, _ := newAssignmentService(pool)
	ctx := context.Background()

	created, err := assignments.Create(ctx, 1, 2, 2, 1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != core.AssignmentPending {
		t.Errorf("Expected pending, got %s", created.Status)
	}
	// Nothing moves until the employee confirms receipt.
	if item := mustItem(t, ctx, inv, 2); item.AvailableFull != 10 {
		t.Errorf("Stock must be untouched at assignment time, got full=%d", item.AvailableFull)
	}

	received, err := assignments.Receive(ctx, created.ID)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if received.Status != core.AssignmentReceived {
		t.Errorf("Expected received, got %s", received.Status)
	}
	if received.ResolvedAt == nil {
		t.Error("Expected resolved_at set")
	}

	item := mustItem(t, ctx, inv, 2)
	if item.AvailableFull != 8 {
		t.Errorf("Expected full=8 after receipt, got %d", item.AvailableFull)
	}
	if got := productScalarStock(t, ctx, pool, 2); got != 11 {
		t.Errorf("Expected product scalar 11, got %d", got)
	}

	var count int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE recipient_id = 1 AND kind = 'assignment_received'").Scan(&count); err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 receipt notification, got %d", count)
	}
}

func TestAssignment_RejectLeavesStockUntouched(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	assignments, inv, _ := newAssignmentService(pool)
	ctx := context.Background()

	created, err := assignments.Create(ctx, 1, 2, 4, 1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rejected, err := assignments.Reject(ctx, created.ID)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Status != core.AssignmentRejected {
		t.Errorf("Expected rejected, got %s", rejected.Status)
	}

	item := mustItem(t, ctx, inv, 2)
	if item.AvailableFull != 10 || item.AvailableEmpty != 3 {
		t.Errorf("Reject must not move stock, got full=%d empty=%d", item.AvailableFull, item.AvailableEmpty)
	}
	if got := productScalarStock(t, ctx, pool, 2); got != 13 {
		t.Errorf("Product scalar must be untouched, got %d", got)
	}

	var count int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE recipient_id = 1 AND kind = 'assignment_rejected'").Scan(&count); err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 rejection notification, got %d", count)
	}
}

func TestAssignment_ResolvedTwiceFails(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	assignments, _, _ := newAssignmentService(pool)
	ctx := context.Background()

	created, err := assignments.Create(ctx, 1, 2, 1, 1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := assignments.Reject(ctx, created.ID); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	_, err = assignments.Receive(ctx, created.ID)
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError on double resolution, got %v", err)
	}
}

func TestAssignment_UnknownEmployee(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	assignments, _, _ := newAssignmentService(pool)

	_, err := assignments.Create(context.Background(), 999, 2, 1, 1)
	var ne *core.NotFoundError
	if !errors.As(err, &ne) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestSideEffects_RetryPendingReplaysLine(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	daily := core.NewDailySalesService(pool)
	runner := core.NewSideEffectRunner(pool, inv, daily)
	ctx := context.Background()

	// A sale row is needed for the dead-letter foreign key.
	var saleID int
	err := pool.QueryRow(ctx, `
		INSERT INTO sales (invoice_number, customer_id, total_amount)
		VALUES ('INV-000001', 1, 100) RETURNING id
	`).Scan(&saleID)
	if err != nil {
		t.Fatalf("insert sale: %v", err)
	}

	line := core.PersistedLine{
		SaleID:    saleID,
		ProductID: 1,
		Category:  core.CategoryGas,
		Quantity:  2,
		UnitPrice: decimal.NewFromInt(50),
		LineTotal: decimal.NewFromInt(100),
		SaleDate:  time.Now().Format("2006-01-02"),
	}
	payload, _ := json.Marshal(line)
	_, err = pool.Exec(ctx, `
		INSERT INTO side_effect_failures (sale_id, step, payload, error)
		VALUES ($1, 'inventory', $2, 'simulated outage')
	`, saleID, payload)
	if err != nil {
		t.Fatalf("insert dead letter: %v", err)
	}

	retried, dead, err := runner.RetryPending(ctx)
	if err != nil {
		t.Fatalf("RetryPending failed: %v", err)
	}
	if retried != 1 || dead != 0 {
		t.Errorf("Expected retried=1 dead=0, got retried=%d dead=%d", retried, dead)
	}

	item := mustItem(t, ctx, inv, 1)
	if item.CurrentStock != 18 {
		t.Errorf("Expected gas stock 18 after replay, got %d", item.CurrentStock)
	}

	var status string
	if err := pool.QueryRow(ctx, "SELECT status FROM side_effect_failures WHERE sale_id = $1", saleID).Scan(&status); err != nil {
		t.Fatalf("read failure row: %v", err)
	}
	if status != "retried" {
		t.Errorf("Expected status retried, got %s", status)
	}
}

func TestSideEffects_FailedLineAppliesNothing(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	daily := core.NewDailySalesService(pool)
	runner := core.NewSideEffectRunner(pool, inv, daily)
	ctx := context.Background()

	var saleID int
	err := pool.QueryRow(ctx, `
		INSERT INTO sales (invoice_number, customer_id, total_amount)
		VALUES ('INV-000003', 1, 100) RETURNING id
	`).Scan(&saleID)
	if err != nil {
		t.Fatalf("insert sale: %v", err)
	}

	// The linked cylinder points at a product that no longer exists, so
	// the mutation fails after the gas decrement would already have run.
	// The whole line must roll back: a half-applied line would deduct the
	// gas a second time on every replay.
	ghost := 999
	line := core.PersistedLine{
		SaleID:                  saleID,
		ProductID:               1,
		Category:                core.CategoryGas,
		Quantity:                2,
		UnitPrice:               decimal.NewFromInt(50),
		LineTotal:               decimal.NewFromInt(100),
		LinkedCylinderProductID: &ghost,
		SaleDate:                time.Now().Format("2006-01-02"),
	}
	runner.ApplySaleEffects(ctx, []core.PersistedLine{line})

	item := mustItem(t, ctx, inv, 1)
	if item.CurrentStock != 20 {
		t.Errorf("Failed line must deduct nothing, got gas stock %d", item.CurrentStock)
	}
	if got := productScalarStock(t, ctx, pool, 1); got != 20 {
		t.Errorf("Product scalar must be untouched, got %d", got)
	}
	rows, err := daily.RowsForDate(ctx, line.SaleDate)
	if err != nil {
		t.Fatalf("RowsForDate failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Failed line must not reach the rollup, got %+v", rows)
	}

	var pending int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM side_effect_failures WHERE status = 'pending'").Scan(&pending); err != nil {
		t.Fatalf("count failures: %v", err)
	}
	if pending == 0 {
		t.Fatal("Expected the failed steps to be dead-lettered")
	}

	// Replaying the still-broken line fails again and must still leave
	// stock untouched: no accumulation across attempts.
	retried, dead, err := runner.RetryPending(ctx)
	if err != nil {
		t.Fatalf("RetryPending failed: %v", err)
	}
	if retried != 0 || dead != 0 {
		t.Errorf("Expected retried=0 dead=0 on a still-failing line, got retried=%d dead=%d", retried, dead)
	}
	if item := mustItem(t, ctx, inv, 1); item.CurrentStock != 20 {
		t.Errorf("Replay of a failing line must deduct nothing, got gas stock %d", item.CurrentStock)
	}
}

func TestSideEffects_UnreadablePayloadGoesDead(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	daily := core.NewDailySalesService(pool)
	runner := core.NewSideEffectRunner(pool, inv, daily)
	ctx := context.Background()

	var saleID int
	err := pool.QueryRow(ctx, `
		INSERT INTO sales (invoice_number, customer_id, total_amount)
		VALUES ('INV-000002', 1, 100) RETURNING id
	`).Scan(&saleID)
	if err != nil {
		t.Fatalf("insert sale: %v", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO side_effect_failures (sale_id, step, payload, error)
		VALUES ($1, 'inventory', '"not a line"', 'simulated outage')
	`, saleID)
	if err != nil {
		t.Fatalf("insert dead letter: %v", err)
	}

	retried, dead, err := runner.RetryPending(ctx)
	if err != nil {
		t.Fatalf("RetryPending failed: %v", err)
	}
	if retried != 0 || dead != 1 {
		t.Errorf("Expected retried=0 dead=1, got retried=%d dead=%d", retried, dead)
	}
}
