package ledger

import (
	"testing"
	"time"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Key
		wantErr bool
	}{
		{name: "memory", input: "memory", want: KeyMemory},
		{name: "servers", input: "servers", want: KeyServers},
		{name: "unknown key", input: "gpu", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "case sensitive", input: "Memory", wantErr: true},
		// Reported by the panel but never sold.
		{name: "swap not purchasable", input: "swap", wantErr: true},
		{name: "io not purchasable", input: "io", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseKey(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResources_GetSet(t *testing.T) {
	var r Resources
	for i, k := range Keys {
		r.Set(k, int64(i+1))
	}
	for i, k := range Keys {
		if got := r.Get(k); got != int64(i+1) {
			t.Errorf("Get(%s) = %d, want %d", k, got, i+1)
		}
	}
}

func TestResources_Add(t *testing.T) {
	a := Resources{CPU: 100, Memory: 1024, Servers: 1}
	b := Resources{CPU: 50, Disk: 5000, Servers: 2}

	got := a.Add(b)
	want := Resources{CPU: 150, Memory: 1024, Disk: 5000, Servers: 3}
	if got != want {
		t.Errorf("Add() = %+v, want %+v", got, want)
	}

	// Operands untouched.
	if a.CPU != 100 || b.CPU != 50 {
		t.Error("Add() mutated its operands")
	}
}

func TestResources_SubtractClamped(t *testing.T) {
	tests := []struct {
		name  string
		base  Resources
		minus Resources
		want  Resources
	}{
		{
			name:  "plain subtraction",
			base:  Resources{Memory: 4096, Disk: 10000},
			minus: Resources{Memory: 1024, Disk: 5000},
			want:  Resources{Memory: 3072, Disk: 5000},
		},
		{
			name: "clamps at zero when limits were already reduced",
			base: Resources{Memory: 512, Servers: 1},
			// A grant larger than the current limit must not go negative.
			minus: Resources{Memory: 2048, Servers: 2},
			want:  Resources{Memory: 0, Servers: 0},
		},
		{
			name:  "mixed fields clamp independently",
			base:  Resources{CPU: 200, Memory: 1024},
			minus: Resources{CPU: 50, Memory: 4096},
			want:  Resources{CPU: 150, Memory: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.base.SubtractClamped(tt.minus); got != tt.want {
				t.Errorf("SubtractClamped() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDeriveRank(t *testing.T) {
	tests := []struct {
		name       string
		current    Rank
		ownedPlans int
		want       Rank
	}{
		{name: "free with no plans stays free", current: RankFree, ownedPlans: 0, want: RankFree},
		{name: "free gains premium with a plan", current: RankFree, ownedPlans: 1, want: RankPremium},
		{name: "premium loses last plan", current: RankPremium, ownedPlans: 0, want: RankFree},
		{name: "premium keeps premium with plans", current: RankPremium, ownedPlans: 3, want: RankPremium},
		{name: "admin sticky with plans", current: RankAdmin, ownedPlans: 2, want: RankAdmin},
		{name: "admin sticky without plans", current: RankAdmin, ownedPlans: 0, want: RankAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveRank(tt.current, tt.ownedPlans); got != tt.want {
				t.Errorf("DeriveRank(%v, %d) = %v, want %v", tt.current, tt.ownedPlans, got, tt.want)
			}
		})
	}
}

func TestPlanGrant_Expired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		grant PlanGrant
		want  bool
	}{
		{name: "permanent grant never expires", grant: PlanGrant{}, want: false},
		{name: "future expiry", grant: PlanGrant{ExpiresAt: &future}, want: false},
		{name: "past expiry", grant: PlanGrant{ExpiresAt: &past}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.grant.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_ExpiredPlans(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	u := &User{OwnedPlans: map[int64]PlanGrant{
		3: {ExpiresAt: &past},
		5: {ExpiresAt: &future},
		9: {ExpiresAt: &past},
		2: {},
	}}

	got := u.ExpiredPlans(now)
	want := []int64{3, 9}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ExpiredPlans() = %v, want %v", got, want)
	}

	var empty User
	if ids := empty.ExpiredPlans(now); len(ids) != 0 {
		t.Errorf("ExpiredPlans() on empty user = %v, want none", ids)
	}
}

func TestUser_OwnsPlan(t *testing.T) {
	u := &User{OwnedPlans: map[int64]PlanGrant{7: {Resources: Resources{Memory: 1024}}}}

	if !u.OwnsPlan(7) {
		t.Error("OwnsPlan(7) = false, want true")
	}
	if u.OwnsPlan(8) {
		t.Error("OwnsPlan(8) = true, want false")
	}

	var empty User
	if empty.OwnsPlan(7) {
		t.Error("OwnsPlan on nil map = true, want false")
	}
}
