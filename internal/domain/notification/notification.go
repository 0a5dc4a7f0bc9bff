package notification

import (
	"context"
	"encoding/json"
	"time"
)

// EventType classifies outbox events.
type EventType string

const (
	EventTypePurchase    EventType = "purchase"
	EventTypePlanGranted EventType = "plan_granted"
	EventTypePlanRevoked EventType = "plan_revoked"
)

// DeliveryStatus tracks an event through the outbox.
type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusFailed  DeliveryStatus = "failed"
)

// Event is an outbox row: written in the request path after a ledger commit,
// delivered asynchronously by the dispatcher. Delivery failure never rolls
// back the commit that produced it.
type Event struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"user_id"`
	Type          EventType       `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	Status        DeliveryStatus  `json:"status"`
	Attempts      int             `json:"attempts"`
	NextAttemptAt time.Time       `json:"next_attempt_at"`
	CreatedAt     time.Time       `json:"created_at"`
	SentAt        *time.Time      `json:"sent_at,omitempty"`
}

// PurchasePayload is the payload for purchase events.
type PurchasePayload struct {
	Username string `json:"username"`
	Resource string `json:"resource"`
	Amount   int64  `json:"amount"`
	Cost     int64  `json:"cost"`
}

// PlanPayload is the payload for plan grant/revoke events.
type PlanPayload struct {
	Username string `json:"username"`
	PlanID   int64  `json:"plan_id"`
	PlanName string `json:"plan_name"`
}

// Repository defines the interface for outbox persistence
type Repository interface {
	// Enqueue stores a pending event
	Enqueue(ctx context.Context, e *Event) error

	// ListPending retrieves pending events due for delivery
	ListPending(ctx context.Context, now time.Time, limit int) ([]*Event, error)

	// MarkSent records a successful delivery
	MarkSent(ctx context.Context, id string, at time.Time) error

	// MarkRetry bumps the attempt counter and schedules the next try
	MarkRetry(ctx context.Context, id string, attempts int, next time.Time) error

	// MarkFailed gives up on an event permanently
	MarkFailed(ctx context.Context, id string) error
}

// Sink delivers events to an external channel. Best effort: errors are
// retried by the dispatcher, never surfaced to the request path.
type Sink interface {
	Send(ctx context.Context, e *Event) error
}
