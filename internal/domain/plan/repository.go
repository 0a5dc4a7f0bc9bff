package plan

import "context"

// Repository defines the interface for plan catalog access
type Repository interface {
	// Create creates a new plan
	Create(ctx context.Context, p *Plan) error

	// GetByID retrieves a plan by ID
	GetByID(ctx context.Context, id int64) (*Plan, error)

	// List retrieves plans, optionally only the publicly visible ones
	List(ctx context.Context, visibleOnly bool) ([]*Plan, error)

	// Update updates a plan
	Update(ctx context.Context, p *Plan) error

	// Delete deletes a plan from the catalog. Users who own it keep their
	// grant-time snapshots, so revocation stays well-defined afterwards.
	Delete(ctx context.Context, id int64) error
}
