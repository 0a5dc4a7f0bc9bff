package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/demoserver"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
)

// DemoServerRepository implements demoserver.Repository
type DemoServerRepository struct {
	db *sql.DB
}

// NewDemoServerRepository creates a new demo server repository
func NewDemoServerRepository(db *sql.DB) demoserver.Repository {
	return &DemoServerRepository{db: db}
}

// Create records a new demo server
func (r *DemoServerRepository) Create(ctx context.Context, d *demoserver.DemoServer) error {
	d.CreatedAt = time.Now()

	query := `
		INSERT INTO demo_servers (user_id, server_id, expires_at, suspended, created_at)
		VALUES (?, ?, ?, FALSE, ?)
	`

	result, err := r.db.ExecContext(ctx, query, d.UserID, d.ServerID, d.ExpiresAt.Unix(), d.CreatedAt.Unix())
	if err != nil {
		return errors.DatabaseError("Failed to create demo server", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.DatabaseError("Failed to get demo server ID", err)
	}

	d.ID = id
	return nil
}

// ListExpired retrieves unsuspended demo servers past their expiry
func (r *DemoServerRepository) ListExpired(ctx context.Context, now time.Time) ([]*demoserver.DemoServer, error) {
	query := `
		SELECT id, user_id, server_id, expires_at, suspended, created_at
		FROM demo_servers
		WHERE suspended = FALSE AND expires_at <= ?
		ORDER BY expires_at
	`

	rows, err := r.db.QueryContext(ctx, query, now.Unix())
	if err != nil {
		return nil, errors.DatabaseError("Failed to list expired demo servers", err)
	}
	defer rows.Close()

	var servers []*demoserver.DemoServer
	for rows.Next() {
		var d demoserver.DemoServer
		var expiresAt, createdAt int64

		if err := rows.Scan(&d.ID, &d.UserID, &d.ServerID, &expiresAt, &d.Suspended, &createdAt); err != nil {
			return nil, errors.DatabaseError("Failed to scan demo server", err)
		}

		d.ExpiresAt = time.Unix(expiresAt, 0)
		d.CreatedAt = time.Unix(createdAt, 0)
		servers = append(servers, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate demo servers", err)
	}

	return servers, nil
}

// MarkSuspended flags a demo server as suspended on the panel
func (r *DemoServerRepository) MarkSuspended(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE demo_servers SET suspended = TRUE WHERE id = ?`, id)
	if err != nil {
		return errors.DatabaseError("Failed to mark demo server suspended", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Demo server")
	}

	return nil
}
