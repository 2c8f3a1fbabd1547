package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ProductInput creates a catalog product. For gas/cylinder categories
// the inventory counters are seeded alongside the product row.
type ProductInput struct {
	Name           string
	Category       string
	CylinderSize   string
	CostPrice      decimal.Decimal
	LeastPrice     decimal.Decimal
	CurrentStock   int64
	AvailableEmpty int64
	AvailableFull  int64
}

// CustomerInput creates a customer master record.
type CustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// CatalogService is the thin master-data layer: customers, products and
// employees. These are collaborators of the sale core, not the point of
// the system, so it stays create-and-list.
type CatalogService interface {
	CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	CreateProduct(ctx context.Context, input ProductInput) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	if input.Name == "" {
		return nil, &ValidationError{Msg: "customer name is required"}
	}
	var c Customer
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, phone, address, created_at
	`, input.Name, input.Email, input.Phone, input.Address).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &c, nil
}

func (s *catalogService) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, phone, address, created_at
		FROM customers
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if input.Name == "" {
		return nil, &ValidationError{Msg: "product name is required"}
	}
	category := input.Category
	if category == "" {
		category = CategoryOther
	}
	switch category {
	case CategoryGas, CategoryCylinder, CategoryOther:
	default:
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown product category %q", category)}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var p Product
	err = tx.QueryRow(ctx, `
		INSERT INTO products (name, category, cylinder_size, cost_price, least_price, current_stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, category, cylinder_size, cost_price, least_price, current_stock, created_at
	`, input.Name, category, input.CylinderSize, input.CostPrice, input.LeastPrice, input.CurrentStock).Scan(
		&p.ID, &p.Name, &p.Category, &p.CylinderSize, &p.CostPrice, &p.LeastPrice, &p.CurrentStock, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	if category == CategoryGas || category == CategoryCylinder {
		_, err = tx.Exec(ctx, `
			INSERT INTO inventory_items (product_id, current_stock, available_empty, available_full)
			VALUES ($1, $2, $3, $4)
		`, p.ID, input.CurrentStock, input.AvailableEmpty, input.AvailableFull)
		if err != nil {
			return nil, fmt.Errorf("failed to seed inventory for product %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product creation: %w", err)
	}
	return &p, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, category, cylinder_size, cost_price, least_price, current_stock, created_at
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.CylinderSize,
			&p.CostPrice, &p.LeastPrice, &p.CurrentStock, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *catalogService) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, phone, created_at
		FROM employees
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Phone, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, nil
}
