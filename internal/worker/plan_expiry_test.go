package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/services"
	"github.com/hostdeck/hostdeck/internal/testutil"
)

func newExpiryFixture() (*testutil.MockLedgerRepository, *PlanExpirySweeper) {
	users := testutil.NewMockLedgerRepository()
	plans := testutil.NewMockPlanRepository()
	outbox := testutil.NewMockOutboxRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	entitlements := services.NewEntitlementService(users, plans, outbox, log)
	s := NewPlanExpirySweeper(entitlements, users, "@every 1h", log)
	return users, s
}

func TestPlanExpirySweeper_SweepAll_RevokesOnlyExpired(t *testing.T) {
	users, s := newExpiryFixture()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	u := users.Seed(&ledger.User{
		Email:  "subscriber@example.com",
		Rank:   ledger.RankPremium,
		Limits: ledger.Resources{Memory: 7168, Disk: 5000},
		OwnedPlans: map[int64]ledger.PlanGrant{
			1: {Resources: ledger.Resources{Memory: 4096}, ExpiresAt: &past},
			2: {Resources: ledger.Resources{Memory: 2048}, ExpiresAt: &future},
			3: {Resources: ledger.Resources{Disk: 5000}},
		},
	})

	s.SweepAll(context.Background())

	got, _ := users.GetByID(context.Background(), u.ID)
	if got.OwnsPlan(1) {
		t.Error("expired grant still owned after sweep")
	}
	if !got.OwnsPlan(2) || !got.OwnsPlan(3) {
		t.Errorf("unexpired grants lost: owned = %+v", got.OwnedPlans)
	}
	if got.Limits.Memory != 3072 {
		t.Errorf("memory limit = %d, want 3072 after revoking the expired grant", got.Limits.Memory)
	}
	if got.Limits.Disk != 5000 {
		t.Errorf("disk limit = %d, want 5000", got.Limits.Disk)
	}
	if got.Rank != ledger.RankPremium {
		t.Errorf("rank = %v, want premium while plans remain", got.Rank)
	}

	// A second sweep finds nothing to do.
	s.SweepAll(context.Background())
	again, _ := users.GetByID(context.Background(), u.ID)
	if again.Limits != got.Limits {
		t.Errorf("second sweep changed limits: %+v", again.Limits)
	}
}

func TestPlanExpirySweeper_SweepAll_LastPlanDowngradesRank(t *testing.T) {
	users, s := newExpiryFixture()

	past := time.Now().Add(-time.Minute)
	u := users.Seed(&ledger.User{
		Email:  "lapsed@example.com",
		Rank:   ledger.RankPremium,
		Limits: ledger.Resources{Memory: 4096},
		OwnedPlans: map[int64]ledger.PlanGrant{
			1: {Resources: ledger.Resources{Memory: 4096}, ExpiresAt: &past},
		},
	})

	s.SweepAll(context.Background())

	got, _ := users.GetByID(context.Background(), u.ID)
	if got.Rank != ledger.RankFree {
		t.Errorf("rank = %v, want free after the last grant expires", got.Rank)
	}
	if got.Limits.Memory != 0 {
		t.Errorf("memory limit = %d, want 0", got.Limits.Memory)
	}
}

// flakyEntitlements fails revocations for one user and records the rest.
type flakyEntitlements struct {
	failUserID int64
	revoked    [][2]int64
}

func (f *flakyEntitlements) ApplyPlan(ctx context.Context, userID, planID int64) (*ledger.User, error) {
	return nil, fmt.Errorf("not used")
}

func (f *flakyEntitlements) RevokePlan(ctx context.Context, userID, planID int64) (*ledger.User, error) {
	if userID == f.failUserID {
		return nil, fmt.Errorf("ledger busy")
	}
	f.revoked = append(f.revoked, [2]int64{userID, planID})
	return &ledger.User{ID: userID}, nil
}

func TestPlanExpirySweeper_SweepAll_FailureDoesNotAbortSweep(t *testing.T) {
	users := testutil.NewMockLedgerRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})

	past := time.Now().Add(-time.Hour)
	grant := map[int64]ledger.PlanGrant{
		1: {Resources: ledger.Resources{Memory: 1024}, ExpiresAt: &past},
	}
	users.Seed(&ledger.User{ID: 1, Email: "a@example.com", OwnedPlans: grant})
	users.Seed(&ledger.User{ID: 2, Email: "b@example.com", OwnedPlans: grant})
	users.Seed(&ledger.User{ID: 3, Email: "c@example.com", OwnedPlans: grant})

	ents := &flakyEntitlements{failUserID: 2}
	s := NewPlanExpirySweeper(ents, users, "@every 1h", log)

	s.SweepAll(context.Background())

	// Users 1 and 3 are revoked despite user 2 failing.
	if len(ents.revoked) != 2 {
		t.Fatalf("revoked = %v, want revocations for users 1 and 3", ents.revoked)
	}
	seen := map[int64]bool{}
	for _, r := range ents.revoked {
		seen[r[0]] = true
	}
	if !seen[1] || !seen[3] || seen[2] {
		t.Errorf("revoked users = %v, want 1 and 3 only", ents.revoked)
	}
}
