package worker

import (
	"context"
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/notification"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/pkg/metrics"
)

// retryBase is the first retry delay; each attempt doubles it.
const retryBase = 30 * time.Second

// OutboxDispatcher drains pending notification events and delivers them to
// the sink. Failed deliveries back off exponentially until MaxAttempts, then
// the event is marked failed for good.
type OutboxDispatcher struct {
	repo        notification.Repository
	sink        notification.Sink
	interval    time.Duration
	batchSize   int
	maxAttempts int
	logger      *logger.Logger
}

// NewOutboxDispatcher creates a new outbox dispatcher worker
func NewOutboxDispatcher(repo notification.Repository, sink notification.Sink, interval time.Duration, batchSize, maxAttempts int, log *logger.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		repo:        repo,
		sink:        sink,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		logger:      log,
	}
}

// Start begins the dispatch loop. Blocks until the context is cancelled.
func (d *OutboxDispatcher) Start(ctx context.Context) {
	d.logger.Info("Outbox dispatcher started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.Dispatch(ctx)
		case <-ctx.Done():
			d.logger.Info("Outbox dispatcher stopped")
			return
		}
	}
}

// Dispatch delivers one batch of due events.
func (d *OutboxDispatcher) Dispatch(ctx context.Context) {
	events, err := d.repo.ListPending(ctx, time.Now(), d.batchSize)
	if err != nil {
		d.logger.ErrorWithErr(err, "Failed to list pending outbox events")
		return
	}

	metrics.SetOutboxPending(float64(len(events)))
	if len(events) == 0 {
		return
	}

	for _, e := range events {
		if ctx.Err() != nil {
			return
		}
		d.deliver(ctx, e)
	}
}

func (d *OutboxDispatcher) deliver(ctx context.Context, e *notification.Event) {
	err := d.sink.Send(ctx, e)
	if err == nil {
		if err := d.repo.MarkSent(ctx, e.ID, time.Now()); err != nil {
			d.logger.ErrorWithErr(err, "Failed to mark event sent")
		}
		metrics.RecordOutboxDelivery("sent")
		return
	}

	attempts := e.Attempts + 1
	if attempts >= d.maxAttempts {
		d.logger.WithFields(map[string]interface{}{
			"event_id": e.ID,
			"type":     string(e.Type),
			"attempts": attempts,
		}).ErrorWithErr(err, "Giving up on outbox event")

		if err := d.repo.MarkFailed(ctx, e.ID); err != nil {
			d.logger.ErrorWithErr(err, "Failed to mark event failed")
		}
		metrics.RecordOutboxDelivery("failed")
		return
	}

	next := time.Now().Add(retryBase << (attempts - 1))
	d.logger.WithFields(map[string]interface{}{
		"event_id": e.ID,
		"attempts": attempts,
	}).Warn("Outbox delivery failed, scheduling retry")

	if err := d.repo.MarkRetry(ctx, e.ID, attempts, next); err != nil {
		d.logger.ErrorWithErr(err, "Failed to schedule event retry")
	}
	metrics.RecordOutboxDelivery("retried")
}
