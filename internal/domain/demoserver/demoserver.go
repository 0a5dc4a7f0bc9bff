package demoserver

import (
	"context"
	"time"
)

// DemoServer tracks a trial server provisioned outside the entitlement
// economy. Demo servers never count against a user's paid limits and are
// suspended on the panel once they expire.
type DemoServer struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ServerID  int64     `json:"server_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Suspended bool      `json:"suspended"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines the interface for demo server tracking
type Repository interface {
	// Create records a new demo server
	Create(ctx context.Context, d *DemoServer) error

	// ListExpired retrieves unsuspended demo servers past their expiry
	ListExpired(ctx context.Context, now time.Time) ([]*DemoServer, error)

	// MarkSuspended flags a demo server as suspended on the panel
	MarkSuspended(ctx context.Context, id int64) error
}
