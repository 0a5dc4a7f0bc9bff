package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/notification"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/testutil"
)

func newDispatcherFixture(maxAttempts int) (*testutil.MockOutboxRepository, *testutil.MockSink, *OutboxDispatcher) {
	repo := testutil.NewMockOutboxRepository()
	sink := testutil.NewMockSink()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	d := NewOutboxDispatcher(repo, sink, time.Second, 50, maxAttempts, log)
	return repo, sink, d
}

func pendingEvent(id string, attempts int) *notification.Event {
	now := time.Now().Add(-time.Minute)
	return &notification.Event{
		ID:            id,
		UserID:        1,
		Type:          notification.EventTypePurchase,
		Payload:       []byte(`{"username":"buyer","resource":"memory","amount":1024,"cost":150}`),
		Status:        notification.DeliveryStatusPending,
		Attempts:      attempts,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
}

func TestOutboxDispatcher_Dispatch_Delivers(t *testing.T) {
	repo, sink, d := newDispatcherFixture(5)
	ctx := context.Background()

	repo.Enqueue(ctx, pendingEvent("evt-1", 0))
	repo.Enqueue(ctx, pendingEvent("evt-2", 0))

	d.Dispatch(ctx)

	if len(sink.Sent) != 2 {
		t.Fatalf("Dispatch() delivered %d events, want 2", len(sink.Sent))
	}
	if len(repo.SentIDs) != 2 {
		t.Errorf("Dispatch() marked %d sent, want 2", len(repo.SentIDs))
	}
	for _, e := range repo.Events {
		if e.Status != notification.DeliveryStatusSent {
			t.Errorf("event %s status = %v, want sent", e.ID, e.Status)
		}
	}
}

func TestOutboxDispatcher_Dispatch_SchedulesRetryWithBackoff(t *testing.T) {
	repo, sink, d := newDispatcherFixture(5)
	ctx := context.Background()

	repo.Enqueue(ctx, pendingEvent("evt-1", 0))
	sink.SendError = fmt.Errorf("webhook returned 500")

	before := time.Now()
	d.Dispatch(ctx)

	if len(repo.RetriedIDs) != 1 {
		t.Fatalf("Dispatch() retried %d events, want 1", len(repo.RetriedIDs))
	}

	e := repo.Events[0]
	if e.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", e.Attempts)
	}
	// First retry lands ~30s out.
	if e.NextAttemptAt.Before(before.Add(retryBase - time.Second)) {
		t.Errorf("next attempt too early: %v", e.NextAttemptAt)
	}

	// Second failure doubles the delay.
	e.NextAttemptAt = time.Now().Add(-time.Second)
	before = time.Now()
	d.Dispatch(ctx)

	if e.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", e.Attempts)
	}
	if e.NextAttemptAt.Before(before.Add(2*retryBase - time.Second)) {
		t.Errorf("second retry not backed off: %v", e.NextAttemptAt)
	}
}

func TestOutboxDispatcher_Dispatch_GivesUpAfterMaxAttempts(t *testing.T) {
	repo, sink, d := newDispatcherFixture(3)
	ctx := context.Background()

	// Already failed twice; the next failure is terminal.
	repo.Enqueue(ctx, pendingEvent("evt-1", 2))
	sink.SendError = fmt.Errorf("webhook returned 500")

	d.Dispatch(ctx)

	if len(repo.FailedIDs) != 1 {
		t.Fatalf("Dispatch() failed %d events, want 1", len(repo.FailedIDs))
	}
	if repo.Events[0].Status != notification.DeliveryStatusFailed {
		t.Errorf("event status = %v, want failed", repo.Events[0].Status)
	}

	// Failed events are never picked up again.
	sink.SendError = nil
	d.Dispatch(ctx)
	if len(sink.Sent) != 0 {
		t.Errorf("Dispatch() delivered %d events after giving up, want 0", len(sink.Sent))
	}
}

func TestOutboxDispatcher_Dispatch_SkipsFutureEvents(t *testing.T) {
	repo, sink, d := newDispatcherFixture(5)
	ctx := context.Background()

	e := pendingEvent("evt-1", 1)
	e.NextAttemptAt = time.Now().Add(time.Hour)
	repo.Enqueue(ctx, e)

	d.Dispatch(ctx)

	if len(sink.Sent) != 0 {
		t.Errorf("Dispatch() delivered %d events before their due time, want 0", len(sink.Sent))
	}
}
