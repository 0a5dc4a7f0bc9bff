package ledger

import (
	"context"
	"time"
)

// ReconcileResult reports one reconciliation pass against the panel.
type ReconcileResult struct {
	Usage       Resources     `json:"resources"`
	DemoSkipped int           `json:"demo_servers_skipped"`
	Updated     bool          `json:"updated"`
	Elapsed     time.Duration `json:"-"`
	ElapsedMS   float64       `json:"elapsed_ms"`
}

// Reconciler refreshes the consumption side of a user's ledger from the
// panel's ground truth.
type Reconciler interface {
	// Reconcile aggregates the user's live server limits into a usage total
	// and persists it only when it differs from the stored vector.
	Reconcile(ctx context.Context, userID int64) (*ReconcileResult, error)
}

// Accounts manages user registration, authentication and the admin-side
// account operations.
type Accounts interface {
	// Register creates a user seeded with the configured initial limits.
	Register(ctx context.Context, email, username, password string) (*User, error)

	// Authenticate verifies credentials and returns the user.
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// Get retrieves a user by ID.
	Get(ctx context.Context, id int64) (*User, error)

	// List retrieves users with pagination.
	List(ctx context.Context, limit, offset int) ([]*User, int64, error)

	// UpdateProfile changes email and username.
	UpdateProfile(ctx context.Context, id int64, email, username string) (*User, error)

	// LinkPanelAccount attaches the external panel account used for
	// usage reconciliation.
	LinkPanelAccount(ctx context.Context, id, panelUserID int64) (*User, error)

	// AdjustCoins credits or debits coins. The balance never goes negative.
	AdjustCoins(ctx context.Context, id, delta int64) (*User, error)

	// SetAdmin grants or removes the admin rank. On removal the rank falls
	// back to what the owned plans imply.
	SetAdmin(ctx context.Context, id int64, admin bool) (*User, error)

	// Delete removes a user.
	Delete(ctx context.Context, id int64) error
}

// Entitlements applies and revokes plan grants against the limits side.
type Entitlements interface {
	// ApplyPlan grants a plan's resource vector to the user. The vector is
	// snapshotted at grant time, so later catalog edits or deletion do not
	// change what a revoke will subtract.
	ApplyPlan(ctx context.Context, userID, planID int64) (*User, error)

	// RevokePlan subtracts the grant-time snapshot, clamped at zero.
	RevokePlan(ctx context.Context, userID, planID int64) (*User, error)
}
