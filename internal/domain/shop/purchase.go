package shop

import (
	"context"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
)

// State tracks a purchase through its lifecycle. Rejected and Committed are
// terminal; the notification outcome never changes a committed purchase.
type State string

const (
	StateValidating  State = "validating"
	StateRejected    State = "rejected"
	StateCommitting  State = "committing"
	StateCommitted   State = "committed"
	StateNotifyQueued State = "notify_queued"
	StateNotifyFailed State = "notify_failed"
)

// PurchaseResult describes a committed purchase.
type PurchaseResult struct {
	Resource ledger.Key `json:"resource"`
	Quantity int64      `json:"quantity"`
	Amount   int64      `json:"amount"`
	Cost     int64      `json:"cost"`
	Coins    int64      `json:"coins"`
	NewLimit int64      `json:"new_limit"`
	State    State      `json:"state"`

	// NotificationQueued is false when the outbox enqueue failed after
	// commit. The purchase itself still succeeded.
	NotificationQueued bool `json:"notification_queued"`
}

// Service defines the interface for shop purchases
type Service interface {
	// Purchase validates and atomically commits a resource purchase:
	// coins are debited and the limit is raised in one transaction.
	Purchase(ctx context.Context, userID int64, resource string, quantity int64) (*PurchaseResult, error)

	// Table returns the active price table.
	Table() *PriceTable
}
