package services

import (
	"context"
	"testing"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/testutil"
)

var testInitialLimits = ledger.Resources{Memory: 1024, Disk: 5000, Servers: 1}

func newUserFixture() (*testutil.MockLedgerRepository, ledger.Accounts) {
	users := testutil.NewMockLedgerRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	// Minimum bcrypt cost keeps the tests fast.
	svc := NewUserService(users, testInitialLimits, 4, log)
	return users, svc
}

func TestUserService_Register(t *testing.T) {
	_, svc := newUserFixture()
	ctx := context.Background()

	u, err := svc.Register(ctx, "new@example.com", "newuser", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if u.ID == 0 {
		t.Error("Register() returned 0 id")
	}
	if u.Rank != ledger.RankFree {
		t.Errorf("Register() rank = %v, want free", u.Rank)
	}
	if u.Limits != testInitialLimits {
		t.Errorf("Register() limits = %+v, want %+v", u.Limits, testInitialLimits)
	}
	if u.Coins != 0 {
		t.Errorf("Register() coins = %d, want 0", u.Coins)
	}
	if u.PasswordHash == "" || u.PasswordHash == "secret123" {
		t.Error("Register() password not hashed")
	}

	// Duplicate email conflicts.
	if _, err := svc.Register(ctx, "new@example.com", "other", "secret123"); !errors.Is(err, errors.ErrCodeConflict) {
		t.Errorf("Register() duplicate error = %v, want CONFLICT", err)
	}
}

func TestUserService_Authenticate(t *testing.T) {
	_, svc := newUserFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "login@example.com", "login", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{name: "valid credentials", email: "login@example.com", password: "secret123"},
		{name: "wrong password", email: "login@example.com", password: "wrong", wantErr: true},
		{name: "unknown email", email: "nobody@example.com", password: "secret123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Authenticate(ctx, tt.email, tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				// Unknown email and wrong password are indistinguishable.
				if !errors.Is(err, errors.ErrCodeUnauthorized) {
					t.Errorf("Authenticate() error code = %v, want UNAUTHORIZED", err)
				}
				return
			}
			if u.Email != tt.email {
				t.Errorf("Authenticate() email = %v, want %v", u.Email, tt.email)
			}
		})
	}
}

func TestUserService_AdjustCoins(t *testing.T) {
	users, svc := newUserFixture()
	u := users.Seed(&ledger.User{Email: "coins@example.com", Rank: ledger.RankFree, Coins: 100})
	ctx := context.Background()

	got, err := svc.AdjustCoins(ctx, u.ID, 250)
	if err != nil {
		t.Fatalf("AdjustCoins() error = %v", err)
	}
	if got.Coins != 350 {
		t.Errorf("AdjustCoins() coins = %d, want 350", got.Coins)
	}

	got, err = svc.AdjustCoins(ctx, u.ID, -350)
	if err != nil {
		t.Fatalf("AdjustCoins() debit error = %v", err)
	}
	if got.Coins != 0 {
		t.Errorf("AdjustCoins() coins = %d, want 0", got.Coins)
	}

	// The balance never goes negative.
	if _, err := svc.AdjustCoins(ctx, u.ID, -1); !errors.Is(err, errors.ErrCodeBadRequest) {
		t.Errorf("AdjustCoins() overdraft error = %v, want BAD_REQUEST", err)
	}
}

func TestUserService_SetAdmin(t *testing.T) {
	users, svc := newUserFixture()
	ctx := context.Background()

	u := users.Seed(&ledger.User{
		Email: "promote@example.com",
		Rank:  ledger.RankFree,
		OwnedPlans: map[int64]ledger.PlanGrant{
			1: {Resources: ledger.Resources{Memory: 1024}},
		},
	})

	got, err := svc.SetAdmin(ctx, u.ID, true)
	if err != nil {
		t.Fatalf("SetAdmin(true) error = %v", err)
	}
	if got.Rank != ledger.RankAdmin {
		t.Errorf("SetAdmin(true) rank = %v, want admin", got.Rank)
	}

	// Removal falls back to what the owned plans imply.
	got, err = svc.SetAdmin(ctx, u.ID, false)
	if err != nil {
		t.Fatalf("SetAdmin(false) error = %v", err)
	}
	if got.Rank != ledger.RankPremium {
		t.Errorf("SetAdmin(false) rank = %v, want premium", got.Rank)
	}
}

func TestUserService_LinkPanelAccount(t *testing.T) {
	users, svc := newUserFixture()
	u := users.Seed(&ledger.User{Email: "link@example.com", Rank: ledger.RankFree})

	got, err := svc.LinkPanelAccount(context.Background(), u.ID, 77)
	if err != nil {
		t.Fatalf("LinkPanelAccount() error = %v", err)
	}
	if got.PanelUserID == nil || *got.PanelUserID != 77 {
		t.Errorf("LinkPanelAccount() panel user id = %v, want 77", got.PanelUserID)
	}

	stored, _ := users.GetByID(context.Background(), u.ID)
	if stored.PanelUserID == nil || *stored.PanelUserID != 77 {
		t.Error("LinkPanelAccount() not persisted")
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	users, svc := newUserFixture()
	u := users.Seed(&ledger.User{Email: "old@example.com", Username: "old", Rank: ledger.RankFree, Coins: 500})

	got, err := svc.UpdateProfile(context.Background(), u.ID, "new@example.com", "newname")
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if got.Email != "new@example.com" || got.Username != "newname" {
		t.Errorf("UpdateProfile() = %s/%s", got.Email, got.Username)
	}

	// Profile writes never touch the ledger columns.
	stored, _ := users.GetByID(context.Background(), u.ID)
	if stored.Coins != 500 {
		t.Errorf("UpdateProfile() coins = %d, want 500", stored.Coins)
	}
}
