package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hostdeck/hostdeck/internal/domain/demoserver"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/services"
)

// DemoJanitor suspends expired demo servers on the panel. Suspension is
// recorded locally only after the panel call succeeds, so a failed call is
// retried on the next sweep.
type DemoJanitor struct {
	repo     demoserver.Repository
	panel    services.PanelAPI
	schedule string
	logger   *logger.Logger
	cron     *cron.Cron
}

// NewDemoJanitor creates a new demo janitor worker
func NewDemoJanitor(repo demoserver.Repository, panel services.PanelAPI, schedule string, log *logger.Logger) *DemoJanitor {
	return &DemoJanitor{
		repo:     repo,
		panel:    panel,
		schedule: schedule,
		logger:   log,
		cron:     cron.New(),
	}
}

// Start schedules the periodic sweep.
func (j *DemoJanitor) Start(ctx context.Context) error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		j.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Infof("Demo janitor started with schedule %s", j.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (j *DemoJanitor) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Demo janitor stopped")
}

// Sweep suspends every expired, still-active demo server.
func (j *DemoJanitor) Sweep(ctx context.Context) {
	expired, err := j.repo.ListExpired(ctx, time.Now())
	if err != nil {
		j.logger.ErrorWithErr(err, "Failed to list expired demo servers")
		return
	}

	if len(expired) == 0 {
		return
	}

	suspended := 0
	for _, d := range expired {
		if ctx.Err() != nil {
			return
		}

		if err := j.panel.SuspendServer(ctx, d.ServerID); err != nil {
			j.logger.WithFields(map[string]interface{}{
				"server_id": d.ServerID,
				"user_id":   d.UserID,
			}).ErrorWithErr(err, "Failed to suspend demo server on panel")
			continue
		}

		if err := j.repo.MarkSuspended(ctx, d.ID); err != nil {
			j.logger.ErrorWithErr(err, "Failed to mark demo server suspended")
			continue
		}
		suspended++
	}

	j.logger.WithFields(map[string]interface{}{
		"expired":   len(expired),
		"suspended": suspended,
	}).Info("Demo server sweep completed")
}
