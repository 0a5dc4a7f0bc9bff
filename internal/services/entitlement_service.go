package services

import (
	"context"
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/domain/notification"
	"github.com/hostdeck/hostdeck/internal/domain/plan"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/pkg/metrics"
)

// EntitlementService implements ledger.Entitlements
type EntitlementService struct {
	users  ledger.Repository
	plans  plan.Repository
	outbox notification.Repository
	logger *logger.Logger
}

// NewEntitlementService creates a new entitlement service
func NewEntitlementService(users ledger.Repository, plans plan.Repository, outbox notification.Repository, log *logger.Logger) ledger.Entitlements {
	return &EntitlementService{
		users:  users,
		plans:  plans,
		outbox: outbox,
		logger: log,
	}
}

// ApplyPlan grants a plan's resource vector to the user. The vector is
// snapshotted into the user's owned plans, so later catalog edits or even
// deletion of the plan do not change what a revoke will subtract. Plans with
// a duration stamp the grant with an expiry for the expiry sweeper to find.
func (s *EntitlementService) ApplyPlan(ctx context.Context, userID, planID int64) (*ledger.User, error) {
	p, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	grant := ledger.PlanGrant{Resources: p.Resources}
	if d := p.GrantDuration(); d > 0 {
		expiresAt := time.Now().Add(d)
		grant.ExpiresAt = &expiresAt
	}

	u, err := mutateLedger(ctx, s.users, userID, func(u *ledger.User) error {
		if u.OwnsPlan(planID) {
			return errors.Conflict("plan already granted")
		}

		u.Limits = u.Limits.Add(p.Resources)
		if u.OwnedPlans == nil {
			u.OwnedPlans = make(map[int64]ledger.PlanGrant)
		}
		u.OwnedPlans[planID] = grant
		u.Rank = ledger.DeriveRank(u.Rank, len(u.OwnedPlans))
		return nil
	})
	if err != nil {
		metrics.RecordPlanChange("grant", "failed")
		return nil, err
	}

	metrics.RecordPlanChange("grant", "ok")
	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"plan_id": planID,
		"rank":    string(u.Rank),
	}).Info("Plan granted")

	enqueueEvent(ctx, s.outbox, s.logger, userID, notification.EventTypePlanGranted, notification.PlanPayload{
		Username: u.Username,
		PlanID:   planID,
		PlanName: p.Name,
	})

	return u, nil
}

// RevokePlan subtracts the grant-time snapshot from the user's limits,
// clamping every field at zero. The plan catalog is not consulted, so
// revocation works even after the plan was edited or deleted.
func (s *EntitlementService) RevokePlan(ctx context.Context, userID, planID int64) (*ledger.User, error) {
	u, err := mutateLedger(ctx, s.users, userID, func(u *ledger.User) error {
		grant, ok := u.OwnedPlans[planID]
		if !ok {
			return errors.Conflict("plan not granted")
		}

		u.Limits = u.Limits.SubtractClamped(grant.Resources)
		delete(u.OwnedPlans, planID)
		u.Rank = ledger.DeriveRank(u.Rank, len(u.OwnedPlans))
		return nil
	})
	if err != nil {
		metrics.RecordPlanChange("revoke", "failed")
		return nil, err
	}

	metrics.RecordPlanChange("revoke", "ok")
	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"plan_id": planID,
		"rank":    string(u.Rank),
	}).Info("Plan revoked")

	// Name lookup is best effort; the plan may be gone from the catalog.
	planName := ""
	if p, err := s.plans.GetByID(ctx, planID); err == nil {
		planName = p.Name
	}
	enqueueEvent(ctx, s.outbox, s.logger, userID, notification.EventTypePlanRevoked, notification.PlanPayload{
		Username: u.Username,
		PlanID:   planID,
		PlanName: planName,
	})

	return u, nil
}
