package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Side-effect step names recorded in the dead-letter table.
const (
	stepInventory  = "inventory"
	stepDailySales = "daily_sales"
)

// maxSideEffectAttempts marks a dead-letter row dead after this many
// failed replays (the original in-request attempt counts as the first).
const maxSideEffectAttempts = 5

// SideEffectRunner applies the post-commit bookkeeping for a sale:
// inventory mutation and daily-sales aggregation, each inside its own
// failure boundary. A failing step is logged and dead-lettered, never
// surfaced to the caller and never rolled back against the committed
// sale. RetryPending replays dead-lettered steps so drift stays
// observable and recoverable.
type SideEffectRunner struct {
	pool  *pgxpool.Pool
	inv   InventoryService
	daily DailySalesService
}

func NewSideEffectRunner(pool *pgxpool.Pool, inv InventoryService, daily DailySalesService) *SideEffectRunner {
	return &SideEffectRunner{pool: pool, inv: inv, daily: daily}
}

// ApplySaleEffects runs both bookkeeping steps for every persisted line.
// One line's failure never blocks its siblings.
func (r *SideEffectRunner) ApplySaleEffects(ctx context.Context, lines []PersistedLine) {
	for _, line := range lines {
		if err := r.inv.ApplySaleLine(ctx, line); err != nil {
			log.Printf("sale %d: inventory mutation failed for product %d: %v", line.SaleID, line.ProductID, err)
			r.deadLetter(ctx, line, stepInventory, err)
		}
		if err := r.daily.RecordLine(ctx, line); err != nil {
			log.Printf("sale %d: daily sales aggregation failed for product %d: %v", line.SaleID, line.ProductID, err)
			r.deadLetter(ctx, line, stepDailySales, err)
		}
	}
}

func (r *SideEffectRunner) deadLetter(ctx context.Context, line PersistedLine, step string, cause error) {
	payload, err := json.Marshal(line)
	if err != nil {
		log.Printf("sale %d: failed to serialize %s dead letter: %v", line.SaleID, step, err)
		return
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO side_effect_failures (sale_id, step, payload, error)
		VALUES ($1, $2, $3, $4)
	`, line.SaleID, step, payload, cause.Error())
	if err != nil {
		// Last resort is the log line above; the sale itself is safe.
		log.Printf("sale %d: failed to record %s dead letter: %v", line.SaleID, step, err)
	}
}

// RetryPending replays every pending dead-lettered step. Steps that
// succeed are marked retried; steps that exhaust their attempt limit
// are marked dead and left for manual reconciliation.
func (r *SideEffectRunner) RetryPending(ctx context.Context) (retried, dead int, err error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, step, payload, attempts
		FROM side_effect_failures
		WHERE status = 'pending'
		ORDER BY id
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query pending side effects: %w", err)
	}

	type failureRow struct {
		id       int
		step     string
		payload  []byte
		attempts int
	}
	var failures []failureRow
	for rows.Next() {
		var f failureRow
		if err := rows.Scan(&f.id, &f.step, &f.payload, &f.attempts); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("failed to scan side effect row: %w", err)
		}
		failures = append(failures, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("error iterating side effect rows: %w", err)
	}

	for _, f := range failures {
		var line PersistedLine
		if err := json.Unmarshal(f.payload, &line); err != nil {
			r.markDead(ctx, f.id, fmt.Sprintf("unreadable payload: %v", err))
			dead++
			continue
		}

		var stepErr error
		switch f.step {
		case stepInventory:
			stepErr = r.inv.ApplySaleLine(ctx, line)
		case stepDailySales:
			stepErr = r.daily.RecordLine(ctx, line)
		default:
			stepErr = fmt.Errorf("unknown side effect step %q", f.step)
		}

		if stepErr == nil {
			_, err := r.pool.Exec(ctx, `
				UPDATE side_effect_failures
				SET status = 'retried', attempts = attempts + 1, last_attempt_at = NOW()
				WHERE id = $1
			`, f.id)
			if err != nil {
				return retried, dead, fmt.Errorf("failed to mark side effect %d retried: %w", f.id, err)
			}
			retried++
			continue
		}

		log.Printf("side effect %d (%s) retry failed: %v", f.id, f.step, stepErr)
		if f.attempts+1 >= maxSideEffectAttempts {
			r.markDead(ctx, f.id, stepErr.Error())
			dead++
			continue
		}
		_, err := r.pool.Exec(ctx, `
			UPDATE side_effect_failures
			SET attempts = attempts + 1, error = $2, last_attempt_at = NOW()
			WHERE id = $1
		`, f.id, stepErr.Error())
		if err != nil {
			return retried, dead, fmt.Errorf("failed to bump side effect %d attempts: %w", f.id, err)
		}
	}

	return retried, dead, nil
}

func (r *SideEffectRunner) markDead(ctx context.Context, id int, cause string) {
	_, err := r.pool.Exec(ctx, `
		UPDATE side_effect_failures
		SET status = 'dead', attempts = attempts + 1, error = $2, last_attempt_at = NOW()
		WHERE id = $1
	`, id, cause)
	if err != nil {
		log.Printf("failed to mark side effect %d dead: %v", id, err)
	}
}
