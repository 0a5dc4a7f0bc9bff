package services

import (
	"context"
	"math"
	"testing"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/domain/notification"
	"github.com/hostdeck/hostdeck/internal/domain/shop"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/testutil"
)

func testPriceTable() *shop.PriceTable {
	return &shop.PriceTable{
		Prices: map[ledger.Key]shop.Price{
			ledger.KeyMemory:  {Enabled: true, Amount: 1024, Cost: 150},
			ledger.KeyDisk:    {Enabled: true, Amount: 5000, Cost: 100},
			ledger.KeyServers: {Enabled: false, Amount: 1, Cost: 500},
		},
		MaxLimits: map[ledger.Key]int64{
			ledger.KeyMemory:  8192,
			ledger.KeyDisk:    50000,
			ledger.KeyServers: 10,
		},
	}
}

func newShopFixture() (*testutil.MockLedgerRepository, *testutil.MockOutboxRepository, shop.Service) {
	users := testutil.NewMockLedgerRepository()
	outbox := testutil.NewMockOutboxRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	svc := NewShopService(users, outbox, testPriceTable(), log)
	return users, outbox, svc
}

func TestShopService_Purchase(t *testing.T) {
	users, outbox, svc := newShopFixture()
	u := users.Seed(&ledger.User{
		Email:    "buyer@example.com",
		Username: "buyer",
		Rank:     ledger.RankFree,
		Coins:    500,
		Limits:   ledger.Resources{Memory: 2048},
	})

	ctx := context.Background()
	result, err := svc.Purchase(ctx, u.ID, "memory", 1)
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}

	if result.Coins != 350 {
		t.Errorf("Purchase() coins = %d, want 350", result.Coins)
	}
	if result.NewLimit != 3072 {
		t.Errorf("Purchase() new limit = %d, want 3072", result.NewLimit)
	}
	if result.State != shop.StateNotifyQueued {
		t.Errorf("Purchase() state = %v, want %v", result.State, shop.StateNotifyQueued)
	}
	if !result.NotificationQueued {
		t.Error("Purchase() notification not queued")
	}

	stored, _ := users.GetByID(ctx, u.ID)
	if stored.Coins != 350 || stored.Limits.Memory != 3072 {
		t.Errorf("stored ledger = coins %d, memory %d", stored.Coins, stored.Limits.Memory)
	}

	if len(outbox.Events) != 1 || outbox.Events[0].Type != notification.EventTypePurchase {
		t.Errorf("outbox events = %+v", outbox.Events)
	}
}

func TestShopService_Purchase_Quantity(t *testing.T) {
	users, _, svc := newShopFixture()
	u := users.Seed(&ledger.User{
		Email: "bulk@example.com",
		Coins: 1000,
	})

	result, err := svc.Purchase(context.Background(), u.ID, "disk", 3)
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	if result.Cost != 300 || result.Amount != 15000 {
		t.Errorf("Purchase() cost = %d amount = %d, want 300/15000", result.Cost, result.Amount)
	}
	if result.Coins != 700 || result.NewLimit != 15000 {
		t.Errorf("Purchase() coins = %d new limit = %d", result.Coins, result.NewLimit)
	}
}

func TestShopService_Purchase_Rejections(t *testing.T) {
	users, outbox, svc := newShopFixture()
	u := users.Seed(&ledger.User{
		Email:  "poor@example.com",
		Coins:  100,
		Limits: ledger.Resources{Memory: 7680},
	})
	rich := users.Seed(&ledger.User{
		Email:  "rich@example.com",
		Coins:  100000,
		Limits: ledger.Resources{Memory: 7680},
	})

	tests := []struct {
		name     string
		userID   int64
		resource string
		quantity int64
		wantCode string
	}{
		{
			name:     "unknown resource",
			userID:   u.ID,
			resource: "gpu",
			quantity: 1,
			wantCode: errors.ErrCodeInvalidResource,
		},
		{
			// Key order matters: a bad quantity on a bad resource still
			// reports the resource first.
			name:     "unknown resource beats bad quantity",
			userID:   u.ID,
			resource: "gpu",
			quantity: 0,
			wantCode: errors.ErrCodeInvalidResource,
		},
		{
			name:     "zero quantity",
			userID:   u.ID,
			resource: "memory",
			quantity: 0,
			wantCode: errors.ErrCodeInvalidQuantity,
		},
		{
			name:     "negative quantity",
			userID:   u.ID,
			resource: "memory",
			quantity: -2,
			wantCode: errors.ErrCodeInvalidQuantity,
		},
		{
			name:     "disabled resource",
			userID:   u.ID,
			resource: "servers",
			quantity: 1,
			wantCode: errors.ErrCodeResourceDisabled,
		},
		{
			// No price entry at all behaves like disabled.
			name:     "unpriced resource",
			userID:   u.ID,
			resource: "backups",
			quantity: 1,
			wantCode: errors.ErrCodeResourceDisabled,
		},
		{
			// Funds are checked before the ceiling.
			name:     "insufficient funds",
			userID:   u.ID,
			resource: "memory",
			quantity: 1,
			wantCode: errors.ErrCodeInsufficientFunds,
		},
		{
			name:     "limit ceiling",
			userID:   rich.ID,
			resource: "memory",
			quantity: 1,
			wantCode: errors.ErrCodeLimitExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Purchase(context.Background(), tt.userID, tt.resource, tt.quantity)
			if err == nil {
				t.Fatal("Purchase() error = nil, want rejection")
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Purchase() error code = %v, want %s", err, tt.wantCode)
			}
		})
	}

	// No rejection may touch the ledger or the outbox.
	stored, _ := users.GetByID(context.Background(), u.ID)
	if stored.Coins != 100 || stored.Limits.Memory != 7680 {
		t.Errorf("ledger changed by rejected purchases: coins %d, memory %d", stored.Coins, stored.Limits.Memory)
	}
	if len(outbox.Events) != 0 {
		t.Errorf("outbox has %d events after rejections, want 0", len(outbox.Events))
	}
}

func TestShopService_Purchase_OversizedQuantity(t *testing.T) {
	users, outbox, svc := newShopFixture()
	u := users.Seed(&ledger.User{
		Email: "whale@example.com",
		Coins: 100,
	})

	// Quantities this large would wrap the cost and amount multiplications
	// negative, turning the debit into a mint and the limit raise into a
	// negative limit. They must die at the quantity check instead.
	for _, quantity := range []int64{
		maxPurchaseQuantity + 1,
		63050394783186944,
		math.MaxInt64,
	} {
		_, err := svc.Purchase(context.Background(), u.ID, "memory", quantity)
		if !errors.Is(err, errors.ErrCodeInvalidQuantity) {
			t.Errorf("Purchase(quantity=%d) error = %v, want INVALID_QUANTITY", quantity, err)
		}
	}

	stored, _ := users.GetByID(context.Background(), u.ID)
	if stored.Coins != 100 {
		t.Errorf("stored coins = %d, want 100", stored.Coins)
	}
	if stored.Limits.Memory != 0 {
		t.Errorf("stored memory limit = %d, want 0", stored.Limits.Memory)
	}
	if len(outbox.Events) != 0 {
		t.Errorf("outbox has %d events, want 0", len(outbox.Events))
	}
}

func TestShopService_Purchase_ExactBalance(t *testing.T) {
	users, _, svc := newShopFixture()
	u := users.Seed(&ledger.User{
		Email: "exact@example.com",
		Coins: 150,
	})

	result, err := svc.Purchase(context.Background(), u.ID, "memory", 1)
	if err != nil {
		t.Fatalf("Purchase() with exact balance error = %v", err)
	}
	if result.Coins != 0 {
		t.Errorf("Purchase() coins = %d, want 0", result.Coins)
	}
}

func TestShopService_Purchase_ExactCeiling(t *testing.T) {
	users, _, svc := newShopFixture()
	u := users.Seed(&ledger.User{
		Email:  "edge@example.com",
		Coins:  500,
		Limits: ledger.Resources{Memory: 7168},
	})

	// 7168 + 1024 == 8192, exactly the cap. At the ceiling is allowed.
	result, err := svc.Purchase(context.Background(), u.ID, "memory", 1)
	if err != nil {
		t.Fatalf("Purchase() at ceiling error = %v", err)
	}
	if result.NewLimit != 8192 {
		t.Errorf("Purchase() new limit = %d, want 8192", result.NewLimit)
	}

	// One more unit must be rejected.
	if _, err := svc.Purchase(context.Background(), u.ID, "memory", 1); !errors.Is(err, errors.ErrCodeLimitExceeded) {
		t.Errorf("Purchase() past ceiling error = %v, want LIMIT_EXCEEDED", err)
	}
}

func TestShopService_Purchase_ConflictRetry(t *testing.T) {
	users, _, svc := newShopFixture()
	u := users.Seed(&ledger.User{
		Email: "racer@example.com",
		Coins: 500,
	})

	// A concurrent writer debits 400 coins between the read and the commit.
	// The retry revalidates against the fresh balance of 100 and must reject
	// instead of double-spending.
	users.PreCommit = func(m *testutil.MockLedgerRepository) {
		m.PreCommit = nil
		stored := m.Users[u.ID]
		stored.Coins -= 400
		stored.Version++
	}

	_, err := svc.Purchase(context.Background(), u.ID, "memory", 1)
	if !errors.Is(err, errors.ErrCodeInsufficientFunds) {
		t.Fatalf("Purchase() error = %v, want INSUFFICIENT_FUNDS", err)
	}

	stored, _ := users.GetByID(context.Background(), u.ID)
	if stored.Coins != 100 {
		t.Errorf("stored coins = %d, want 100", stored.Coins)
	}
	if stored.Limits.Memory != 0 {
		t.Errorf("stored memory limit = %d, want 0", stored.Limits.Memory)
	}
}

func TestShopService_Purchase_ConflictRetrySucceeds(t *testing.T) {
	users, _, svc := newShopFixture()
	u := users.Seed(&ledger.User{
		Email: "racer2@example.com",
		Coins: 500,
	})

	// The concurrent writer only bumps the version; the retry still affords
	// the purchase and must commit against the fresh read.
	users.PreCommit = func(m *testutil.MockLedgerRepository) {
		m.PreCommit = nil
		m.Users[u.ID].Version++
	}

	result, err := svc.Purchase(context.Background(), u.ID, "memory", 1)
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	if result.Coins != 350 {
		t.Errorf("Purchase() coins = %d, want 350", result.Coins)
	}
}

func TestShopService_Purchase_ConflictExhaustion(t *testing.T) {
	users, _, svc := newShopFixture()
	u := users.Seed(&ledger.User{
		Email: "hotspot@example.com",
		Coins: 5000,
	})

	// Every commit attempt loses the race.
	users.PreCommit = func(m *testutil.MockLedgerRepository) {
		m.Users[u.ID].Version++
	}

	_, err := svc.Purchase(context.Background(), u.ID, "memory", 1)
	if !errors.Is(err, errors.ErrCodeTransactionFailed) {
		t.Fatalf("Purchase() error = %v, want TRANSACTION_FAILED", err)
	}
}

func TestShopService_Purchase_OutboxFailureDoesNotRollBack(t *testing.T) {
	users, outbox, svc := newShopFixture()
	u := users.Seed(&ledger.User{
		Email: "notify@example.com",
		Coins: 500,
	})
	outbox.EnqueueError = errors.DatabaseError("outbox unavailable", nil)

	result, err := svc.Purchase(context.Background(), u.ID, "memory", 1)
	if err != nil {
		t.Fatalf("Purchase() error = %v, want success despite outbox failure", err)
	}
	if result.NotificationQueued {
		t.Error("Purchase() notification queued = true, want false")
	}
	if result.State != shop.StateNotifyFailed {
		t.Errorf("Purchase() state = %v, want %v", result.State, shop.StateNotifyFailed)
	}

	// The debit stands.
	stored, _ := users.GetByID(context.Background(), u.ID)
	if stored.Coins != 350 {
		t.Errorf("stored coins = %d, want 350", stored.Coins)
	}
}

func TestShopService_Purchase_UnknownUser(t *testing.T) {
	_, _, svc := newShopFixture()

	if _, err := svc.Purchase(context.Background(), 999, "memory", 1); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Purchase() error = %v, want NOT_FOUND", err)
	}
}
