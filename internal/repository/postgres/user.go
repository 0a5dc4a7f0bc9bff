package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/metrics"
)

// UserRepository implements ledger.Repository. The ledger columns (coins,
// limits, owned_plans, rank) are guarded by a per-row version counter; the
// resources column is written without a guard because reconciliation is its
// only writer.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) ledger.Repository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, username, password_hash, rank, coins, limits, resources, owned_plans, panel_user_id, version, created_at, updated_at`

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *ledger.User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.OwnedPlans == nil {
		u.OwnedPlans = make(map[int64]ledger.PlanGrant)
	}

	limits, resources, ownedPlans, err := marshalLedger(u)
	if err != nil {
		return errors.DatabaseError("Failed to encode ledger", err)
	}

	query := `
		INSERT INTO users (email, username, password_hash, rank, coins, limits, resources, owned_plans, panel_user_id, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`

	start := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		u.Email, u.Username, u.PasswordHash, u.Rank, u.Coins,
		limits, resources, ownedPlans, u.PanelUserID, now.Unix(), now.Unix(),
	)
	metrics.RecordDBQuery("insert", "users", time.Since(start))
	if err != nil {
		return errors.DatabaseError("Failed to create user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.DatabaseError("Failed to get user ID", err)
	}

	u.ID = id
	u.Version = 0
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*ledger.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*ledger.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.getOne(ctx, query, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*ledger.User, error) {
	start := time.Now()
	row := r.db.QueryRowContext(ctx, query, arg)
	metrics.RecordDBQuery("select", "users", time.Since(start))

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// List retrieves users with pagination
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*ledger.User, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count users", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list users", err)
	}
	defer rows.Close()

	var users []*ledger.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to iterate users", err)
	}

	return users, total, nil
}

// ListProvisioned retrieves users with a linked panel account
func (r *UserRepository) ListProvisioned(ctx context.Context) ([]*ledger.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE panel_user_id IS NOT NULL ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list provisioned users", err)
	}
	defer rows.Close()

	var users []*ledger.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate users", err)
	}

	return users, nil
}

// Update updates profile fields. The ledger columns are untouched so a
// concurrent purchase cannot be clobbered by a profile edit.
func (r *UserRepository) Update(ctx context.Context, u *ledger.User) error {
	u.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET email = ?, username = ?, password_hash = ?, panel_user_id = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		u.Email, u.Username, u.PasswordHash, u.PanelUserID, u.UpdatedAt.Unix(), u.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("User")
	}

	return nil
}

// UpdateLedger commits coins, limits, owned plans and rank in one statement
// guarded by the version read beforehand. Zero affected rows means another
// writer committed in between; the caller re-reads and retries.
func (r *UserRepository) UpdateLedger(ctx context.Context, u *ledger.User, expectedVersion int64) error {
	u.UpdatedAt = time.Now()

	limits, _, ownedPlans, err := marshalLedger(u)
	if err != nil {
		return errors.DatabaseError("Failed to encode ledger", err)
	}

	query := `
		UPDATE users
		SET coins = ?, limits = ?, owned_plans = ?, rank = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	start := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		u.Coins, limits, ownedPlans, u.Rank, u.UpdatedAt.Unix(), u.ID, expectedVersion,
	)
	metrics.RecordDBQuery("update_ledger", "users", time.Since(start))
	if err != nil {
		return errors.DatabaseError("Failed to update ledger", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		// Row missing and row moved on look the same here; disambiguate so
		// the caller does not retry against a deleted user.
		if _, getErr := r.GetByID(ctx, u.ID); getErr != nil {
			return getErr
		}
		return ledger.ErrVersionConflict
	}

	u.Version = expectedVersion + 1
	return nil
}

// UpdateUsage writes the consumption vector only.
func (r *UserRepository) UpdateUsage(ctx context.Context, userID int64, usage ledger.Resources) error {
	data, err := json.Marshal(usage)
	if err != nil {
		return errors.DatabaseError("Failed to encode usage", err)
	}

	query := `UPDATE users SET resources = ?, updated_at = ? WHERE id = ?`

	start := time.Now()
	result, err := r.db.ExecContext(ctx, query, string(data), time.Now().Unix(), userID)
	metrics.RecordDBQuery("update_usage", "users", time.Since(start))
	if err != nil {
		return errors.DatabaseError("Failed to update usage", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("User")
	}

	return nil
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("User")
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(s scanner) (*ledger.User, error) {
	var u ledger.User
	var limits, resources, ownedPlans string
	var panelUserID sql.NullInt64
	var createdAt, updatedAt int64

	err := s.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Rank, &u.Coins,
		&limits, &resources, &ownedPlans, &panelUserID, &u.Version,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(limits), &u.Limits); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(resources), &u.Usage); err != nil {
		return nil, err
	}
	if err := unmarshalOwnedPlans(ownedPlans, &u.OwnedPlans); err != nil {
		return nil, err
	}

	if panelUserID.Valid {
		u.PanelUserID = &panelUserID.Int64
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)

	return &u, nil
}

// marshalLedger encodes the three JSON ledger columns.
func marshalLedger(u *ledger.User) (limits, resources, ownedPlans string, err error) {
	lb, err := json.Marshal(u.Limits)
	if err != nil {
		return "", "", "", err
	}
	rb, err := json.Marshal(u.Usage)
	if err != nil {
		return "", "", "", err
	}

	// encoding/json stringifies the int64 plan IDs as object keys.
	pb, err := json.Marshal(u.OwnedPlans)
	if err != nil {
		return "", "", "", err
	}

	return string(lb), string(rb), string(pb), nil
}

func unmarshalOwnedPlans(data string, out *map[int64]ledger.PlanGrant) error {
	*out = make(map[int64]ledger.PlanGrant)
	return json.Unmarshal([]byte(data), out)
}
