package ledger

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by UpdateLedger when the user row changed
// since it was read. Callers retry with a fresh read.
var ErrVersionConflict = errors.New("ledger version conflict")

// Repository defines the interface for ledger data access
type Repository interface {
	// Create creates a new user with an initialized ledger
	Create(ctx context.Context, u *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List retrieves users with pagination
	List(ctx context.Context, limit, offset int) ([]*User, int64, error)

	// ListProvisioned retrieves users with a linked panel account
	ListProvisioned(ctx context.Context) ([]*User, error)

	// Update updates profile fields (email, username, password, panel link)
	Update(ctx context.Context, u *User) error

	// UpdateLedger commits coins, limits, owned plans and rank in a single
	// atomic statement guarded by the row version read at expectedVersion.
	// Returns ErrVersionConflict if another writer got there first.
	UpdateLedger(ctx context.Context, u *User, expectedVersion int64) error

	// UpdateUsage writes the consumption vector only. Its write set is
	// disjoint from UpdateLedger, so it takes no version guard.
	UpdateUsage(ctx context.Context, userID int64, usage Resources) error

	// Delete deletes a user
	Delete(ctx context.Context, id int64) error
}
