package services

import (
	"context"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/domain/plan"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
)

// PlanService manages the plan catalog.
type PlanService struct {
	repo   plan.Repository
	logger *logger.Logger
}

// NewPlanService creates a new plan service
func NewPlanService(repo plan.Repository, log *logger.Logger) *PlanService {
	return &PlanService{
		repo:   repo,
		logger: log,
	}
}

// Create validates and creates a plan
func (s *PlanService) Create(ctx context.Context, p *plan.Plan) error {
	if err := validatePlan(p); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create plan")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"plan_id": p.ID,
		"name":    p.Name,
	}).Info("Plan created")

	return nil
}

// Get retrieves a plan by ID
func (s *PlanService) Get(ctx context.Context, id int64) (*plan.Plan, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves plans, optionally only the publicly visible ones
func (s *PlanService) List(ctx context.Context, visibleOnly bool) ([]*plan.Plan, error) {
	return s.repo.List(ctx, visibleOnly)
}

// Update validates and updates a plan. Users who already own the plan keep
// their grant-time snapshot; the edit only affects future grants.
func (s *PlanService) Update(ctx context.Context, p *plan.Plan) error {
	if err := validatePlan(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

// Delete removes a plan from the catalog.
func (s *PlanService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func validatePlan(p *plan.Plan) error {
	if p.Name == "" {
		return errors.BadRequest("plan name is required")
	}
	if p.Price < 0 {
		return errors.BadRequest("plan price must be non-negative")
	}
	if p.DurationDays < 0 {
		return errors.BadRequest("plan duration must be non-negative")
	}
	for _, k := range ledger.Keys {
		if p.Resources.Get(k) < 0 {
			return errors.BadRequest("plan resources must be non-negative")
		}
	}
	return nil
}
