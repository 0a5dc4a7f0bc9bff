package services

import (
	"context"
	"testing"
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/domain/notification"
	"github.com/hostdeck/hostdeck/internal/domain/plan"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/testutil"
)

func newEntitlementFixture() (*testutil.MockLedgerRepository, *testutil.MockPlanRepository, *testutil.MockOutboxRepository, ledger.Entitlements) {
	users := testutil.NewMockLedgerRepository()
	plans := testutil.NewMockPlanRepository()
	outbox := testutil.NewMockOutboxRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	svc := NewEntitlementService(users, plans, outbox, log)
	return users, plans, outbox, svc
}

func TestEntitlementService_ApplyPlan(t *testing.T) {
	users, plans, outbox, svc := newEntitlementFixture()
	ctx := context.Background()

	u := users.Seed(&ledger.User{
		Email:  "member@example.com",
		Rank:   ledger.RankFree,
		Limits: ledger.Resources{Memory: 1024, Servers: 1},
	})
	p := &plan.Plan{
		Name:      "Iron",
		Resources: ledger.Resources{Memory: 4096, Disk: 10000, Servers: 2},
		Price:     300,
	}
	plans.Create(ctx, p)

	got, err := svc.ApplyPlan(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("ApplyPlan() error = %v", err)
	}

	want := ledger.Resources{Memory: 5120, Disk: 10000, Servers: 3}
	if got.Limits != want {
		t.Errorf("ApplyPlan() limits = %+v, want %+v", got.Limits, want)
	}
	if got.Rank != ledger.RankPremium {
		t.Errorf("ApplyPlan() rank = %v, want premium", got.Rank)
	}
	if !got.OwnsPlan(p.ID) {
		t.Error("ApplyPlan() plan not recorded as owned")
	}

	if len(outbox.Events) != 1 || outbox.Events[0].Type != notification.EventTypePlanGranted {
		t.Errorf("outbox events = %+v", outbox.Events)
	}

	// Granting the same plan again conflicts.
	if _, err := svc.ApplyPlan(ctx, u.ID, p.ID); !errors.Is(err, errors.ErrCodeConflict) {
		t.Errorf("ApplyPlan() repeat error = %v, want CONFLICT", err)
	}
}

func TestEntitlementService_ApplyPlan_GrantExpiry(t *testing.T) {
	users, plans, _, svc := newEntitlementFixture()
	ctx := context.Background()

	u := users.Seed(&ledger.User{Email: "member@example.com", Rank: ledger.RankFree})
	monthly := &plan.Plan{Name: "Iron Monthly", Resources: ledger.Resources{Memory: 4096}, DurationDays: 30}
	forever := &plan.Plan{Name: "Iron", Resources: ledger.Resources{Memory: 4096}}
	plans.Create(ctx, monthly)
	plans.Create(ctx, forever)

	before := time.Now()
	got, err := svc.ApplyPlan(ctx, u.ID, monthly.ID)
	if err != nil {
		t.Fatalf("ApplyPlan() error = %v", err)
	}

	grant := got.OwnedPlans[monthly.ID]
	if grant.ExpiresAt == nil {
		t.Fatal("ApplyPlan() grant of a duration plan has no expiry")
	}
	wantExpiry := before.Add(30 * 24 * time.Hour)
	if grant.ExpiresAt.Before(wantExpiry) || grant.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("grant expiry = %v, want about %v", grant.ExpiresAt, wantExpiry)
	}

	got, err = svc.ApplyPlan(ctx, u.ID, forever.ID)
	if err != nil {
		t.Fatalf("ApplyPlan() error = %v", err)
	}
	if got.OwnedPlans[forever.ID].ExpiresAt != nil {
		t.Error("ApplyPlan() permanent grant carries an expiry")
	}
}

func TestEntitlementService_RevokePlan_RestoresLimits(t *testing.T) {
	users, plans, _, svc := newEntitlementFixture()
	ctx := context.Background()

	base := ledger.Resources{Memory: 1024, Servers: 1}
	u := users.Seed(&ledger.User{Email: "member@example.com", Rank: ledger.RankFree, Limits: base})
	p := &plan.Plan{Name: "Iron", Resources: ledger.Resources{Memory: 4096, Servers: 2}}
	plans.Create(ctx, p)

	if _, err := svc.ApplyPlan(ctx, u.ID, p.ID); err != nil {
		t.Fatalf("ApplyPlan() error = %v", err)
	}

	got, err := svc.RevokePlan(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("RevokePlan() error = %v", err)
	}

	// Grant then revoke restores the original limits exactly.
	if got.Limits != base {
		t.Errorf("RevokePlan() limits = %+v, want %+v", got.Limits, base)
	}
	if got.Rank != ledger.RankFree {
		t.Errorf("RevokePlan() rank = %v, want free", got.Rank)
	}
	if got.OwnsPlan(p.ID) {
		t.Error("RevokePlan() plan still owned")
	}
}

func TestEntitlementService_RevokePlan_SnapshotSurvivesCatalogEdit(t *testing.T) {
	users, plans, _, svc := newEntitlementFixture()
	ctx := context.Background()

	u := users.Seed(&ledger.User{Email: "member@example.com", Rank: ledger.RankFree})
	p := &plan.Plan{Name: "Iron", Resources: ledger.Resources{Memory: 4096}}
	plans.Create(ctx, p)

	if _, err := svc.ApplyPlan(ctx, u.ID, p.ID); err != nil {
		t.Fatalf("ApplyPlan() error = %v", err)
	}

	// The catalog entry grows after the grant; revoke must subtract the
	// grant-time vector, not the edited one.
	p.Resources = ledger.Resources{Memory: 16384}
	plans.Update(ctx, p)

	got, err := svc.RevokePlan(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("RevokePlan() error = %v", err)
	}
	if got.Limits.Memory != 0 {
		t.Errorf("RevokePlan() memory = %d, want 0", got.Limits.Memory)
	}
}

func TestEntitlementService_RevokePlan_SurvivesCatalogDeletion(t *testing.T) {
	users, plans, _, svc := newEntitlementFixture()
	ctx := context.Background()

	u := users.Seed(&ledger.User{Email: "member@example.com", Rank: ledger.RankFree})
	p := &plan.Plan{Name: "Iron", Resources: ledger.Resources{Memory: 4096, Disk: 5000}}
	plans.Create(ctx, p)

	if _, err := svc.ApplyPlan(ctx, u.ID, p.ID); err != nil {
		t.Fatalf("ApplyPlan() error = %v", err)
	}
	plans.Delete(ctx, p.ID)

	got, err := svc.RevokePlan(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("RevokePlan() after catalog deletion error = %v", err)
	}
	if got.Limits.Memory != 0 || got.Limits.Disk != 0 {
		t.Errorf("RevokePlan() limits = %+v, want zeros", got.Limits)
	}
}

func TestEntitlementService_RevokePlan_ClampsManualEdits(t *testing.T) {
	users, plans, _, svc := newEntitlementFixture()
	ctx := context.Background()

	u := users.Seed(&ledger.User{Email: "member@example.com", Rank: ledger.RankFree})
	p := &plan.Plan{Name: "Iron", Resources: ledger.Resources{Memory: 4096}}
	plans.Create(ctx, p)

	if _, err := svc.ApplyPlan(ctx, u.ID, p.ID); err != nil {
		t.Fatalf("ApplyPlan() error = %v", err)
	}

	// An admin manually lowered the limit below the granted amount.
	stored := users.Users[u.ID]
	stored.Limits.Memory = 1000

	got, err := svc.RevokePlan(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("RevokePlan() error = %v", err)
	}
	if got.Limits.Memory != 0 {
		t.Errorf("RevokePlan() memory = %d, want 0 (clamped)", got.Limits.Memory)
	}
}

func TestEntitlementService_RevokePlan_NotGranted(t *testing.T) {
	users, _, _, svc := newEntitlementFixture()
	u := users.Seed(&ledger.User{Email: "member@example.com", Rank: ledger.RankFree})

	if _, err := svc.RevokePlan(context.Background(), u.ID, 99); !errors.Is(err, errors.ErrCodeConflict) {
		t.Errorf("RevokePlan() error = %v, want CONFLICT", err)
	}
}

func TestEntitlementService_ApplyPlan_UnknownPlan(t *testing.T) {
	users, _, _, svc := newEntitlementFixture()
	u := users.Seed(&ledger.User{Email: "member@example.com", Rank: ledger.RankFree})

	if _, err := svc.ApplyPlan(context.Background(), u.ID, 99); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("ApplyPlan() error = %v, want NOT_FOUND", err)
	}
}

func TestEntitlementService_RankDerivation(t *testing.T) {
	users, plans, _, svc := newEntitlementFixture()
	ctx := context.Background()

	p1 := &plan.Plan{Name: "Iron", Resources: ledger.Resources{Memory: 1024}}
	p2 := &plan.Plan{Name: "Gold", Resources: ledger.Resources{Memory: 2048}}
	plans.Create(ctx, p1)
	plans.Create(ctx, p2)

	t.Run("premium persists until last plan revoked", func(t *testing.T) {
		u := users.Seed(&ledger.User{Email: "two-plans@example.com", Rank: ledger.RankFree})

		svc.ApplyPlan(ctx, u.ID, p1.ID)
		svc.ApplyPlan(ctx, u.ID, p2.ID)

		got, _ := svc.RevokePlan(ctx, u.ID, p1.ID)
		if got.Rank != ledger.RankPremium {
			t.Errorf("rank after first revoke = %v, want premium", got.Rank)
		}

		got, _ = svc.RevokePlan(ctx, u.ID, p2.ID)
		if got.Rank != ledger.RankFree {
			t.Errorf("rank after last revoke = %v, want free", got.Rank)
		}
	})

	t.Run("admin never downgraded by plan changes", func(t *testing.T) {
		u := users.Seed(&ledger.User{Email: "admin@example.com", Rank: ledger.RankAdmin})

		got, err := svc.ApplyPlan(ctx, u.ID, p1.ID)
		if err != nil {
			t.Fatalf("ApplyPlan() error = %v", err)
		}
		if got.Rank != ledger.RankAdmin {
			t.Errorf("rank after grant = %v, want admin", got.Rank)
		}

		got, _ = svc.RevokePlan(ctx, u.ID, p1.ID)
		if got.Rank != ledger.RankAdmin {
			t.Errorf("rank after revoke = %v, want admin", got.Rank)
		}
	})
}
