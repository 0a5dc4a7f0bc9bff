package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
)

// planExpiryPageSize bounds how many users one page of the sweep loads.
const planExpiryPageSize = 200

// PlanExpirySweeper revokes plan grants whose expiry has passed. Revocation
// goes through the entitlement service, so expired grants lose their resource
// contribution, rank is rederived and the usual notification is queued. A
// failure for one user never stops the sweep; the grant is picked up again on
// the next pass.
type PlanExpirySweeper struct {
	entitlements ledger.Entitlements
	repo         ledger.Repository
	schedule     string
	logger       *logger.Logger
	cron         *cron.Cron
}

// NewPlanExpirySweeper creates a new plan expiry sweeper worker
func NewPlanExpirySweeper(entitlements ledger.Entitlements, repo ledger.Repository, schedule string, log *logger.Logger) *PlanExpirySweeper {
	return &PlanExpirySweeper{
		entitlements: entitlements,
		repo:         repo,
		schedule:     schedule,
		logger:       log,
		cron:         cron.New(),
	}
}

// Start schedules the periodic sweep.
func (s *PlanExpirySweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.SweepAll(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Infof("Plan expiry sweeper started with schedule %s", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *PlanExpirySweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Plan expiry sweeper stopped")
}

// SweepAll pages through every user and revokes their expired grants.
func (s *PlanExpirySweeper) SweepAll(ctx context.Context) {
	now := time.Now()
	revoked := 0
	failed := 0

	offset := 0
	for {
		if ctx.Err() != nil {
			return
		}

		users, _, err := s.repo.List(ctx, planExpiryPageSize, offset)
		if err != nil {
			s.logger.ErrorWithErr(err, "Failed to list users for plan expiry sweep")
			return
		}
		if len(users) == 0 {
			break
		}

		for _, u := range users {
			r, f := s.sweepUser(ctx, u, now)
			revoked += r
			failed += f
		}

		if len(users) < planExpiryPageSize {
			break
		}
		offset += len(users)
	}

	if revoked == 0 && failed == 0 {
		return
	}
	s.logger.WithFields(map[string]interface{}{
		"revoked": revoked,
		"failed":  failed,
	}).Info("Plan expiry sweep completed")
}

func (s *PlanExpirySweeper) sweepUser(ctx context.Context, u *ledger.User, now time.Time) (revoked, failed int) {
	for _, planID := range u.ExpiredPlans(now) {
		if ctx.Err() != nil {
			return revoked, failed
		}

		if _, err := s.entitlements.RevokePlan(ctx, u.ID, planID); err != nil {
			failed++
			s.logger.WithFields(map[string]interface{}{
				"user_id": u.ID,
				"plan_id": planID,
			}).ErrorWithErr(err, "Failed to revoke expired plan")
			continue
		}
		revoked++
		s.logger.WithFields(map[string]interface{}{
			"user_id": u.ID,
			"plan_id": planID,
		}).Info("Expired plan revoked")
	}
	return revoked, failed
}
