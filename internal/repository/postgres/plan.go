package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/plan"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
)

// PlanRepository implements plan.Repository
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *sql.DB) plan.Repository {
	return &PlanRepository{db: db}
}

// Create creates a new plan
func (r *PlanRepository) Create(ctx context.Context, p *plan.Plan) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	resources, err := json.Marshal(p.Resources)
	if err != nil {
		return errors.DatabaseError("Failed to encode plan resources", err)
	}

	query := `
		INSERT INTO plans (name, description, resources, price, duration_days, visible, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		p.Name, p.Description, string(resources), p.Price, p.DurationDays, p.Visible, now.Unix(), now.Unix(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create plan", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.DatabaseError("Failed to get plan ID", err)
	}

	p.ID = id
	return nil
}

// GetByID retrieves a plan by ID
func (r *PlanRepository) GetByID(ctx context.Context, id int64) (*plan.Plan, error) {
	query := `
		SELECT id, name, description, resources, price, duration_days, visible, created_at, updated_at
		FROM plans WHERE id = ?
	`

	p, err := scanPlan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Plan")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get plan", err)
	}
	return p, nil
}

// List retrieves plans, optionally only the publicly visible ones
func (r *PlanRepository) List(ctx context.Context, visibleOnly bool) ([]*plan.Plan, error) {
	query := `
		SELECT id, name, description, resources, price, duration_days, visible, created_at, updated_at
		FROM plans
	`
	if visibleOnly {
		query += ` WHERE visible = TRUE`
	}
	query += ` ORDER BY price, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list plans", err)
	}
	defer rows.Close()

	var plans []*plan.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan plan", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate plans", err)
	}

	return plans, nil
}

// Update updates a plan
func (r *PlanRepository) Update(ctx context.Context, p *plan.Plan) error {
	p.UpdatedAt = time.Now()

	resources, err := json.Marshal(p.Resources)
	if err != nil {
		return errors.DatabaseError("Failed to encode plan resources", err)
	}

	query := `
		UPDATE plans
		SET name = ?, description = ?, resources = ?, price = ?, duration_days = ?, visible = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		p.Name, p.Description, string(resources), p.Price, p.DurationDays, p.Visible, p.UpdatedAt.Unix(), p.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update plan", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Plan")
	}

	return nil
}

// Delete deletes a plan
func (r *PlanRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete plan", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Plan")
	}

	return nil
}

func scanPlan(s scanner) (*plan.Plan, error) {
	var p plan.Plan
	var resources string
	var createdAt, updatedAt int64

	err := s.Scan(&p.ID, &p.Name, &p.Description, &resources, &p.Price, &p.DurationDays, &p.Visible, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(resources), &p.Resources); err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)

	return &p, nil
}
