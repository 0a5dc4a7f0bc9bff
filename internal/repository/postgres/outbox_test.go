package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hostdeck/hostdeck/internal/domain/notification"
	"github.com/hostdeck/hostdeck/internal/repository/postgres"
	"github.com/hostdeck/hostdeck/internal/testutil"
)

func enqueueTestEvent(t *testing.T, repo notification.Repository, due time.Time) *notification.Event {
	t.Helper()
	e := &notification.Event{
		ID:            uuid.NewString(),
		UserID:        1,
		Type:          notification.EventTypePurchase,
		Payload:       []byte(`{"username":"buyer","resource":"memory","amount":1024,"cost":150}`),
		NextAttemptAt: due,
		CreatedAt:     time.Now(),
	}
	if err := repo.Enqueue(context.Background(), e); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	return e
}

func TestOutboxRepository_EnqueueAndListPending(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewOutboxRepository(db)
	ctx := context.Background()

	due := enqueueTestEvent(t, repo, time.Now().Add(-time.Minute))
	enqueueTestEvent(t, repo, time.Now().Add(time.Hour)) // not yet due

	events, err := repo.ListPending(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("ListPending() returned %d events, want 1", len(events))
	}
	if events[0].ID != due.ID {
		t.Errorf("ListPending() id = %s, want %s", events[0].ID, due.ID)
	}
	if string(events[0].Payload) != string(due.Payload) {
		t.Errorf("payload = %s", events[0].Payload)
	}
}

func TestOutboxRepository_MarkSent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewOutboxRepository(db)
	ctx := context.Background()

	e := enqueueTestEvent(t, repo, time.Now().Add(-time.Minute))

	if err := repo.MarkSent(ctx, e.ID, time.Now()); err != nil {
		t.Fatalf("MarkSent() error = %v", err)
	}

	events, _ := repo.ListPending(ctx, time.Now(), 10)
	if len(events) != 0 {
		t.Errorf("ListPending() after MarkSent returned %d events, want 0", len(events))
	}
}

func TestOutboxRepository_MarkRetry(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewOutboxRepository(db)
	ctx := context.Background()

	e := enqueueTestEvent(t, repo, time.Now().Add(-time.Minute))

	next := time.Now().Add(30 * time.Second)
	if err := repo.MarkRetry(ctx, e.ID, 1, next); err != nil {
		t.Fatalf("MarkRetry() error = %v", err)
	}

	// Not due until the retry time passes.
	events, _ := repo.ListPending(ctx, time.Now(), 10)
	if len(events) != 0 {
		t.Errorf("ListPending() before retry due returned %d events, want 0", len(events))
	}

	events, _ = repo.ListPending(ctx, next.Add(time.Second), 10)
	if len(events) != 1 {
		t.Fatalf("ListPending() after retry due returned %d events, want 1", len(events))
	}
	if events[0].Attempts != 1 {
		t.Errorf("attempts = %d, want 1", events[0].Attempts)
	}
}

func TestOutboxRepository_MarkFailed(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewOutboxRepository(db)
	ctx := context.Background()

	e := enqueueTestEvent(t, repo, time.Now().Add(-time.Minute))

	if err := repo.MarkFailed(ctx, e.ID); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}

	events, _ := repo.ListPending(ctx, time.Now(), 10)
	if len(events) != 0 {
		t.Errorf("ListPending() after MarkFailed returned %d events, want 0", len(events))
	}
}
