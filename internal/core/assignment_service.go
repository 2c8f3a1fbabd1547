package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AssignmentService manages employee stock assignments. Stock moves only
// when the employee confirms receipt; a rejected assignment leaves every
// counter untouched. Both resolutions notify the assigning admin on a
// best-effort basis.
type AssignmentService interface {
	Create(ctx context.Context, employeeID, productID int, quantity int64, assignedBy int) (*StockAssignment, error)
	// Receive transitions pending → received and deducts the assigned
	// quantity from product stock.
	Receive(ctx context.Context, assignmentID int) (*StockAssignment, error)
	// Reject transitions pending → rejected without mutating stock.
	Reject(ctx context.Context, assignmentID int) (*StockAssignment, error)
	Get(ctx context.Context, assignmentID int) (*StockAssignment, error)
	List(ctx context.Context) ([]StockAssignment, error)
}

type assignmentService struct {
	pool          *pgxpool.Pool
	inv           InventoryService
	notifications NotificationService
}

func NewAssignmentService(pool *pgxpool.Pool, inv InventoryService, notifications NotificationService) AssignmentService {
	return &assignmentService{pool: pool, inv: inv, notifications: notifications}
}

func (s *assignmentService) Create(ctx context.Context, employeeID, productID int, quantity int64, assignedBy int) (*StockAssignment, error) {
	if quantity <= 0 {
		return nil, &ValidationError{Msg: "quantity must be positive"}
	}

	var employeeName string
	err := s.pool.QueryRow(ctx, "SELECT name FROM employees WHERE id = $1", employeeID).Scan(&employeeName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "employee", Ref: fmt.Sprintf("%d", employeeID)}
		}
		return nil, fmt.Errorf("failed to resolve employee: %w", err)
	}
	var productName string
	err = s.pool.QueryRow(ctx, "SELECT name FROM products WHERE id = $1", productID).Scan(&productName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "product", Ref: fmt.Sprintf("%d", productID)}
		}
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}

	var id int
	err = s.pool.QueryRow(ctx, `
		INSERT INTO stock_assignments (employee_id, product_id, quantity, status, assigned_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, employeeID, productID, quantity, AssignmentPending, assignedBy).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create stock assignment: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *assignmentService) Receive(ctx context.Context, assignmentID int) (*StockAssignment, error) {
	assignment, err := s.transition(ctx, assignmentID, AssignmentReceived)
	if err != nil {
		return nil, err
	}

	// Receipt is the moment stock leaves the depot.
	if err := s.inv.DeductForAssignment(ctx, assignment.ProductID, assignment.Quantity); err != nil {
		log.Printf("assignment %d: stock deduction failed: %v", assignmentID, err)
	}

	s.notifyAssigner(ctx, assignment, "assignment_received",
		fmt.Sprintf("%s received %d × %s", assignment.EmployeeName, assignment.Quantity, assignment.ProductName))
	return assignment, nil
}

func (s *assignmentService) Reject(ctx context.Context, assignmentID int) (*StockAssignment, error) {
	// No stock mutation on reject: nothing was deducted at assignment
	// time, so there is nothing to restore.
	assignment, err := s.transition(ctx, assignmentID, AssignmentRejected)
	if err != nil {
		return nil, err
	}

	s.notifyAssigner(ctx, assignment, "assignment_rejected",
		fmt.Sprintf("%s rejected the assignment of %d × %s", assignment.EmployeeName, assignment.Quantity, assignment.ProductName))
	return assignment, nil
}

// transition moves a pending assignment to a terminal status.
func (s *assignmentService) transition(ctx context.Context, assignmentID int, status string) (*StockAssignment, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE stock_assignments
		SET status = $1, resolved_at = NOW()
		WHERE id = $2 AND status = $3
	`, status, assignmentID, AssignmentPending)
	if err != nil {
		return nil, fmt.Errorf("failed to update assignment %d: %w", assignmentID, err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := s.Get(ctx, assignmentID)
		if err != nil {
			return nil, err
		}
		return nil, &ValidationError{
			Msg: fmt.Sprintf("assignment %d cannot transition to %s: status is %s", assignmentID, status, existing.Status),
		}
	}
	return s.Get(ctx, assignmentID)
}

func (s *assignmentService) notifyAssigner(ctx context.Context, assignment *StockAssignment, kind, message string) {
	if err := s.notifications.Notify(ctx, assignment.AssignedBy, kind, message); err != nil {
		log.Printf("assignment %d: notification failed: %v", assignment.ID, err)
	}
}

func (s *assignmentService) Get(ctx context.Context, assignmentID int) (*StockAssignment, error) {
	var a StockAssignment
	err := s.pool.QueryRow(ctx, `
		SELECT sa.id, sa.employee_id, e.name, sa.product_id, p.name,
		       sa.quantity, sa.status, sa.assigned_by, sa.assigned_at, sa.resolved_at
		FROM stock_assignments sa
		JOIN employees e ON e.id = sa.employee_id
		JOIN products p  ON p.id = sa.product_id
		WHERE sa.id = $1
	`, assignmentID).Scan(&a.ID, &a.EmployeeID, &a.EmployeeName, &a.ProductID, &a.ProductName,
		&a.Quantity, &a.Status, &a.AssignedBy, &a.AssignedAt, &a.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "stock assignment", Ref: fmt.Sprintf("%d", assignmentID)}
		}
		return nil, fmt.Errorf("failed to fetch assignment %d: %w", assignmentID, err)
	}
	return &a, nil
}

func (s *assignmentService) List(ctx context.Context) ([]StockAssignment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sa.id, sa.employee_id, e.name, sa.product_id, p.name,
		       sa.quantity, sa.status, sa.assigned_by, sa.assigned_at, sa.resolved_at
		FROM stock_assignments sa
		JOIN employees e ON e.id = sa.employee_id
		JOIN products p  ON p.id = sa.product_id
		ORDER BY sa.assigned_at DESC, sa.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var out []StockAssignment
	for rows.Next() {
		var a StockAssignment
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.EmployeeName, &a.ProductID, &a.ProductName,
			&a.Quantity, &a.Status, &a.AssignedBy, &a.AssignedAt, &a.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}
