package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// maxInvoiceAttempts bounds the persistence retry loop on invoice
// number collisions before the whole sale-creation request fails.
const maxInvoiceAttempts = 5

// InvoiceService issues globally unique, monotonically increasing
// invoice numbers backed by a shared counter row. Safe for concurrent
// callers: the increment is a single atomic UPDATE.
type InvoiceService interface {
	// NextNumber increments the shared counter and returns the formatted
	// sequential invoice number.
	NextNumber(ctx context.Context) (string, error)
	// FallbackNumber increments the counter and appends a timestamp
	// suffix. Used by the sale persister after a duplicate-key collision.
	FallbackNumber(ctx context.Context) (string, error)
}

type invoiceService struct {
	pool *pgxpool.Pool
}

func NewInvoiceService(pool *pgxpool.Pool) InvoiceService {
	return &invoiceService{pool: pool}
}

func (s *invoiceService) nextValue(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		UPDATE invoice_counters
		SET last_number = last_number + 1
		WHERE id = 1
		RETURNING last_number
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to advance invoice counter: %w", err)
	}
	return n, nil
}

func (s *invoiceService) NextNumber(ctx context.Context) (string, error) {
	n, err := s.nextValue(ctx)
	if err != nil {
		return "", err
	}
	return formatInvoiceNumber(n), nil
}

func (s *invoiceService) FallbackNumber(ctx context.Context) (string, error) {
	n, err := s.nextValue(ctx)
	if err != nil {
		return "", err
	}
	return formatFallbackInvoiceNumber(n, time.Now()), nil
}

func formatInvoiceNumber(n int64) string {
	return fmt.Sprintf("INV-%06d", n)
}

// formatFallbackInvoiceNumber concatenates the next counter value with a
// millisecond timestamp so a collided number can never collide again.
func formatFallbackInvoiceNumber(n int64, now time.Time) string {
	return fmt.Sprintf("INV-%06d-%d", n, now.UnixMilli())
}
