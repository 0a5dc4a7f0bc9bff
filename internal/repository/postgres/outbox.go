package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/notification"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
)

// OutboxRepository implements notification.Repository
type OutboxRepository struct {
	db *sql.DB
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *sql.DB) notification.Repository {
	return &OutboxRepository{db: db}
}

// Enqueue stores a pending event
func (r *OutboxRepository) Enqueue(ctx context.Context, e *notification.Event) error {
	query := `
		INSERT INTO outbox_events (id, user_id, event_type, payload, status, attempts, next_attempt_at, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.Type, string(e.Payload), notification.DeliveryStatusPending,
		e.NextAttemptAt.Unix(), e.CreatedAt.Unix(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to enqueue event", err)
	}

	e.Status = notification.DeliveryStatusPending
	return nil
}

// ListPending retrieves pending events due for delivery, oldest first
func (r *OutboxRepository) ListPending(ctx context.Context, now time.Time, limit int) ([]*notification.Event, error) {
	query := `
		SELECT id, user_id, event_type, payload, status, attempts, next_attempt_at, created_at, sent_at
		FROM outbox_events
		WHERE status = ? AND next_attempt_at <= ?
		ORDER BY created_at
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, notification.DeliveryStatusPending, now.Unix(), limit)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list pending events", err)
	}
	defer rows.Close()

	var events []*notification.Event
	for rows.Next() {
		var e notification.Event
		var payload string
		var nextAttemptAt, createdAt int64
		var sentAt sql.NullInt64

		err := rows.Scan(&e.ID, &e.UserID, &e.Type, &payload, &e.Status, &e.Attempts, &nextAttemptAt, &createdAt, &sentAt)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan event", err)
		}

		e.Payload = []byte(payload)
		e.NextAttemptAt = time.Unix(nextAttemptAt, 0)
		e.CreatedAt = time.Unix(createdAt, 0)
		if sentAt.Valid {
			t := time.Unix(sentAt.Int64, 0)
			e.SentAt = &t
		}

		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate events", err)
	}

	return events, nil
}

// MarkSent records a successful delivery
func (r *OutboxRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE outbox_events SET status = ?, sent_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, notification.DeliveryStatusSent, at.Unix(), id)
	if err != nil {
		return errors.DatabaseError("Failed to mark event sent", err)
	}
	return nil
}

// MarkRetry bumps the attempt counter and schedules the next try
func (r *OutboxRepository) MarkRetry(ctx context.Context, id string, attempts int, next time.Time) error {
	query := `UPDATE outbox_events SET attempts = ?, next_attempt_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, attempts, next.Unix(), id)
	if err != nil {
		return errors.DatabaseError("Failed to schedule event retry", err)
	}
	return nil
}

// MarkFailed gives up on an event permanently
func (r *OutboxRepository) MarkFailed(ctx context.Context, id string) error {
	query := `UPDATE outbox_events SET status = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, notification.DeliveryStatusFailed, id)
	if err != nil {
		return errors.DatabaseError("Failed to mark event failed", err)
	}
	return nil
}
