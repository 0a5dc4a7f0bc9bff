package worker

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
)

// ReconcileSweeper refreshes usage for every provisioned user on a schedule.
// A failure for one user never stops the sweep; users with an unreachable
// panel simply keep their last known usage.
type ReconcileSweeper struct {
	reconciler ledger.Reconciler
	repo       ledger.Repository
	schedule   string
	logger     *logger.Logger
	cron       *cron.Cron
}

// NewReconcileSweeper creates a new reconcile sweeper worker
func NewReconcileSweeper(reconciler ledger.Reconciler, repo ledger.Repository, schedule string, log *logger.Logger) *ReconcileSweeper {
	return &ReconcileSweeper{
		reconciler: reconciler,
		repo:       repo,
		schedule:   schedule,
		logger:     log,
		cron:       cron.New(),
	}
}

// Start schedules the periodic sweep. The context bounds each pass, not the
// scheduler itself; call Stop to shut down.
func (s *ReconcileSweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.SweepAll(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Infof("Reconcile sweeper started with schedule %s", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *ReconcileSweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Reconcile sweeper stopped")
}

// SweepAll reconciles every user with a linked panel account.
func (s *ReconcileSweeper) SweepAll(ctx context.Context) {
	users, err := s.repo.ListProvisioned(ctx)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to list provisioned users for sweep")
		return
	}

	updated := 0
	failed := 0
	for _, u := range users {
		if ctx.Err() != nil {
			return
		}

		result, err := s.reconciler.Reconcile(ctx, u.ID)
		if err != nil {
			failed++
			if !errors.Is(err, errors.ErrCodeUpstreamUnavailable) {
				s.logger.WithFields(map[string]interface{}{
					"user_id": u.ID,
				}).ErrorWithErr(err, "Failed to reconcile user")
			}
			continue
		}
		if result.Updated {
			updated++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"users":   len(users),
		"updated": updated,
		"failed":  failed,
	}).Info("Reconcile sweep completed")
}
