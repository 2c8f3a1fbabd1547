package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LinkageResolver infers which cylinder product a gas sale involves (so
// the full→empty conversion can be recorded), and symmetrically which
// gas product a full-cylinder sale consumes. Resolution is best-effort:
// an explicit id wins, then name-similarity heuristics, and an unmatched
// name silently yields no linkage rather than an error.
type LinkageResolver interface {
	// CylinderForGas returns the paired cylinder product id for a gas
	// line, or nil when no pairing can be determined.
	CylinderForGas(ctx context.Context, gas Product, explicitID *int) (*int, error)
	// GasForCylinder returns the gas product consumed by a full-cylinder
	// sale, or nil when no pairing can be determined.
	GasForCylinder(ctx context.Context, cylinder Product, explicitID *int) (*int, error)
}

type linkageResolver struct {
	pool *pgxpool.Pool
}

func NewLinkageResolver(pool *pgxpool.Pool) LinkageResolver {
	return &linkageResolver{pool: pool}
}

func (r *linkageResolver) CylinderForGas(ctx context.Context, gas Product, explicitID *int) (*int, error) {
	if explicitID != nil {
		var id int
		err := r.pool.QueryRow(ctx,
			"SELECT id FROM products WHERE id = $1 AND category = $2",
			*explicitID, CategoryCylinder,
		).Scan(&id)
		if err == nil {
			return &id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to verify explicit cylinder product: %w", err)
		}
		// Stale explicit reference: fall through to the heuristics.
	}

	rows, err := r.pool.Query(ctx,
		"SELECT id, name, cylinder_size FROM products WHERE category = $1 ORDER BY id",
		CategoryCylinder,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cylinder products: %w", err)
	}
	defer rows.Close()

	var cylinders []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CylinderSize); err != nil {
			return nil, fmt.Errorf("failed to scan cylinder product: %w", err)
		}
		cylinders = append(cylinders, p)
	}

	if match := matchCylinderForGas(gas.Name, cylinders); match != nil {
		return &match.ID, nil
	}
	return nil, nil
}

// gasCandidate is a gas product with its current inventory stock,
// fetched highest-stock first for the last-resort fallback.
type gasCandidate struct {
	Product
	stock int64
}

func (r *linkageResolver) GasForCylinder(ctx context.Context, cylinder Product, explicitID *int) (*int, error) {
	if explicitID != nil {
		var id int
		err := r.pool.QueryRow(ctx,
			"SELECT id FROM products WHERE id = $1 AND category = $2",
			*explicitID, CategoryGas,
		).Scan(&id)
		if err == nil {
			return &id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to verify explicit gas product: %w", err)
		}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.cylinder_size, COALESCE(ii.current_stock, p.current_stock)
		FROM products p
		LEFT JOIN inventory_items ii ON ii.product_id = p.id
		WHERE p.category = $1
		ORDER BY COALESCE(ii.current_stock, p.current_stock) DESC, p.id
	`, CategoryGas)
	if err != nil {
		return nil, fmt.Errorf("failed to query gas products: %w", err)
	}
	defer rows.Close()

	var candidates []gasCandidate
	for rows.Next() {
		var c gasCandidate
		if err := rows.Scan(&c.ID, &c.Name, &c.CylinderSize, &c.stock); err != nil {
			return nil, fmt.Errorf("failed to scan gas product: %w", err)
		}
		candidates = append(candidates, c)
	}

	if match := matchGasForCylinder(cylinder, candidates); match != nil {
		return &match.ID, nil
	}
	return nil, nil
}

// ── Pure matching heuristics ──────────────────────────────────────────────────

// unit and filler words excluded from token matching.
var linkageStopWords = map[string]bool{
	"gas": true, "kg": true, "lb": true, "lbs": true,
	"ltr": true, "l": true, "the": true, "and": true,
}

// stripCylinderWords removes the words "cylinder"/"cylinders" from a
// cylinder product name, leaving the brand/size remainder used for
// substring matching against gas product names.
func stripCylinderWords(name string) string {
	fields := strings.Fields(name)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		switch strings.ToLower(f) {
		case "cylinder", "cylinders":
			continue
		}
		kept = append(kept, f)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// nameTokens splits a product name into lowercase words, dropping unit
// words and anything too short to be meaningful.
func nameTokens(name string) []string {
	fields := strings.Fields(strings.ToLower(name))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,-")
		if len(f) < 2 || linkageStopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// matchCylinderForGas finds the cylinder product paired with a gas
// product by name. First pass: strip "cylinder(s)" from each cylinder
// name and test whether the gas name contains the remainder. Second
// pass: return the first cylinder whose name contains any meaningful
// word of the gas name.
func matchCylinderForGas(gasName string, cylinders []Product) *Product {
	gasLower := strings.ToLower(gasName)
	for i := range cylinders {
		remainder := strings.ToLower(stripCylinderWords(cylinders[i].Name))
		if remainder != "" && strings.Contains(gasLower, remainder) {
			return &cylinders[i]
		}
	}

	for _, token := range nameTokens(gasName) {
		for i := range cylinders {
			if strings.Contains(strings.ToLower(cylinders[i].Name), token) {
				return &cylinders[i]
			}
		}
	}
	return nil
}

// matchGasForCylinder finds the gas product consumed by a full-cylinder
// sale. Candidates must be ordered highest-stock first. Resolution:
// name similarity, then same cylinder size, then any gas product with
// positive stock.
func matchGasForCylinder(cylinder Product, candidates []gasCandidate) *Product {
	remainder := strings.ToLower(stripCylinderWords(cylinder.Name))
	if remainder != "" {
		for i := range candidates {
			if strings.Contains(strings.ToLower(candidates[i].Name), remainder) {
				return &candidates[i].Product
			}
		}
	}
	for _, token := range nameTokens(cylinder.Name) {
		if token == "cylinder" || token == "cylinders" {
			continue
		}
		for i := range candidates {
			if strings.Contains(strings.ToLower(candidates[i].Name), token) {
				return &candidates[i].Product
			}
		}
	}

	if cylinder.CylinderSize != "" {
		for i := range candidates {
			if candidates[i].CylinderSize == cylinder.CylinderSize {
				return &candidates[i].Product
			}
		}
	}

	for i := range candidates {
		if candidates[i].stock > 0 {
			return &candidates[i].Product
		}
	}
	return nil
}
