package worker

import (
	"context"
	"fmt"
	"testing"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/testutil"
)

// stubReconciler records which users were reconciled and fails selected ones.
type stubReconciler struct {
	calls      []int64
	failUserID int64
}

func (r *stubReconciler) Reconcile(ctx context.Context, userID int64) (*ledger.ReconcileResult, error) {
	r.calls = append(r.calls, userID)
	if userID == r.failUserID {
		return nil, errors.UpstreamUnavailable(fmt.Errorf("panel timed out"))
	}
	return &ledger.ReconcileResult{Updated: true}, nil
}

func seedProvisionedUser(users *testutil.MockLedgerRepository, id int64, email string) {
	panelID := id * 100
	users.Seed(&ledger.User{ID: id, Email: email, PanelUserID: &panelID})
}

func TestReconcileSweeper_SweepAll(t *testing.T) {
	users := testutil.NewMockLedgerRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})

	seedProvisionedUser(users, 1, "a@example.com")
	seedProvisionedUser(users, 2, "b@example.com")
	seedProvisionedUser(users, 3, "c@example.com")
	// No panel account, so the sweep skips this one entirely.
	users.Seed(&ledger.User{ID: 4, Email: "d@example.com"})

	rec := &stubReconciler{failUserID: 2}
	s := NewReconcileSweeper(rec, users, "@every 10m", log)

	s.SweepAll(context.Background())

	// Every provisioned user is attempted; user 2 failing does not stop the
	// sweep from reaching the rest.
	if len(rec.calls) != 3 {
		t.Fatalf("reconciled %d users, want 3: %v", len(rec.calls), rec.calls)
	}
	seen := map[int64]bool{}
	for _, id := range rec.calls {
		seen[id] = true
	}
	if !seen[1] || !seen[2] || !seen[3] {
		t.Errorf("reconciled users = %v, want 1, 2 and 3", rec.calls)
	}
	if seen[4] {
		t.Error("unprovisioned user was reconciled")
	}
}

func TestReconcileSweeper_SweepAll_CancelledContext(t *testing.T) {
	users := testutil.NewMockLedgerRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})

	seedProvisionedUser(users, 1, "a@example.com")

	rec := &stubReconciler{}
	s := NewReconcileSweeper(rec, users, "@every 10m", log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.SweepAll(ctx)

	if len(rec.calls) != 0 {
		t.Errorf("reconciled %d users on a cancelled context, want 0", len(rec.calls))
	}
}
