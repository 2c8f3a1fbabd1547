// seed loads a small demo dataset: employees, customers, a gas/cylinder
// product catalog with matching inventory items, and the invoice counter.
// Safe to re-run; existing rows are left alone.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"

	"cylinder-backoffice/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding employees...")
	_, err = tx.Exec(ctx, `
		INSERT INTO employees (name, phone)
		SELECT v.name, v.phone
		FROM (VALUES
			('Arjun Menon', '9400000001'),
			('Divya Nair', '9400000002'),
			('Rahul Varma', '9400000003')
		) AS v(name, phone)
		WHERE NOT EXISTS (SELECT 1 FROM employees);
	`)
	if err != nil {
		log.Fatalf("Failed to seed employees: %v", err)
	}

	log.Println("Seeding customers...")
	_, err = tx.Exec(ctx, `
		INSERT INTO customers (name, email, phone, address)
		SELECT v.name, v.email, v.phone, v.address
		FROM (VALUES
			('Hotel Blue Lagoon', 'orders@bluelagoon.example.com', '9500000001', 'MG Road'),
			('Cafe Arabica', 'cafe@arabica.example.com', '9500000002', 'Beach Road'),
			('Walk-in Customer', '', '', '')
		) AS v(name, email, phone, address)
		WHERE NOT EXISTS (SELECT 1 FROM customers);
	`)
	if err != nil {
		log.Fatalf("Failed to seed customers: %v", err)
	}

	log.Println("Seeding products...")
	_, err = tx.Exec(ctx, `
		INSERT INTO products (name, category, cylinder_size, cost_price, least_price, current_stock)
		VALUES
			('LPG Gas 14.2kg', 'gas', '14.2kg', 850.00, 950.00, 40),
			('LPG Gas 19kg', 'gas', '19kg', 1400.00, 1550.00, 25),
			('14.2kg Cylinder', 'cylinder', '14.2kg', 1800.00, 2000.00, 30),
			('19kg Cylinder', 'cylinder', '19kg', 2400.00, 2650.00, 15),
			('Regulator', 'other', '', 250.00, 320.00, 50),
			('Gas Stove 2-Burner', 'other', '', 2200.00, 2600.00, 12)
		ON CONFLICT (name) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}

	log.Println("Seeding inventory items...")
	_, err = tx.Exec(ctx, `
		INSERT INTO inventory_items (product_id, current_stock, available_empty, available_full)
		SELECT id, current_stock,
			CASE WHEN category = 'cylinder' THEN 10 ELSE 0 END,
			CASE WHEN category = 'cylinder' THEN current_stock ELSE 0 END
		FROM products
		WHERE category IN ('gas', 'cylinder')
		ON CONFLICT (product_id) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed inventory items: %v", err)
	}

	log.Println("Ensuring invoice counter...")
	_, err = tx.Exec(ctx, `
		INSERT INTO invoice_counters (id, last_number)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed invoice counter: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed complete.")
}
