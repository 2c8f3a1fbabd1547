package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationService is a thin collaborator: assignment flows fire
// best-effort notifications through it. Delivery beyond the table row
// is somebody else's problem.
type NotificationService interface {
	Notify(ctx context.Context, recipientID int, kind, message string) error
	ListForRecipient(ctx context.Context, recipientID int) ([]Notification, error)
}

type notificationService struct {
	pool *pgxpool.Pool
}

func NewNotificationService(pool *pgxpool.Pool) NotificationService {
	return &notificationService{pool: pool}
}

func (s *notificationService) Notify(ctx context.Context, recipientID int, kind, message string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (recipient_id, kind, message)
		VALUES ($1, $2, $3)
	`, recipientID, kind, message)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *notificationService) ListForRecipient(ctx context.Context, recipientID int) ([]Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, recipient_id, kind, message, read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Kind, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}
