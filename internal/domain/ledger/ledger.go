package ledger

import (
	"fmt"
	"sort"
	"time"
)

// Key identifies one of the fixed resource kinds tracked by the ledger.
// Unknown keys are rejected at the boundary via ParseKey.
type Key string

const (
	KeyCPU         Key = "cpu"
	KeyMemory      Key = "memory"
	KeySwap        Key = "swap"
	KeyDisk        Key = "disk"
	KeyIO          Key = "io"
	KeyDatabases   Key = "databases"
	KeyAllocations Key = "allocations"
	KeyBackups     Key = "backups"
	KeyServers     Key = "servers"
)

// Keys lists every tracked resource key in a stable order.
var Keys = []Key{
	KeyCPU, KeyMemory, KeySwap, KeyDisk, KeyIO,
	KeyDatabases, KeyAllocations, KeyBackups, KeyServers,
}

// PurchasableKeys lists the keys the shop may sell and plans may grant.
// Swap and IO only appear on the consumption side; they are reported by the
// panel per server but are not part of the entitlement economy.
var PurchasableKeys = []Key{
	KeyCPU, KeyMemory, KeyDisk, KeyDatabases, KeyAllocations, KeyBackups, KeyServers,
}

// ParseKey converts a raw string into a purchasable resource key.
func ParseKey(s string) (Key, error) {
	for _, k := range PurchasableKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown resource key: %q", s)
}

// Resources is a fixed vector of resource quantities. It serves both sides of
// the ledger: entitlement limits and observed consumption.
type Resources struct {
	CPU         int64 `json:"cpu"`
	Memory      int64 `json:"memory"`
	Swap        int64 `json:"swap"`
	Disk        int64 `json:"disk"`
	IO          int64 `json:"io"`
	Databases   int64 `json:"databases"`
	Allocations int64 `json:"allocations"`
	Backups     int64 `json:"backups"`
	Servers     int64 `json:"servers"`
}

// Get returns the quantity for a key.
func (r Resources) Get(key Key) int64 {
	switch key {
	case KeyCPU:
		return r.CPU
	case KeyMemory:
		return r.Memory
	case KeySwap:
		return r.Swap
	case KeyDisk:
		return r.Disk
	case KeyIO:
		return r.IO
	case KeyDatabases:
		return r.Databases
	case KeyAllocations:
		return r.Allocations
	case KeyBackups:
		return r.Backups
	case KeyServers:
		return r.Servers
	}
	return 0
}

// Set assigns the quantity for a key.
func (r *Resources) Set(key Key, v int64) {
	switch key {
	case KeyCPU:
		r.CPU = v
	case KeyMemory:
		r.Memory = v
	case KeySwap:
		r.Swap = v
	case KeyDisk:
		r.Disk = v
	case KeyIO:
		r.IO = v
	case KeyDatabases:
		r.Databases = v
	case KeyAllocations:
		r.Allocations = v
	case KeyBackups:
		r.Backups = v
	case KeyServers:
		r.Servers = v
	}
}

// Add returns the field-wise sum of r and other.
func (r Resources) Add(other Resources) Resources {
	out := r
	for _, k := range Keys {
		out.Set(k, r.Get(k)+other.Get(k))
	}
	return out
}

// SubtractClamped returns r minus other, clamping every field at zero.
// The clamp tolerates manual limit edits that already reduced a field below
// the amount being revoked.
func (r Resources) SubtractClamped(other Resources) Resources {
	out := r
	for _, k := range Keys {
		v := r.Get(k) - other.Get(k)
		if v < 0 {
			v = 0
		}
		out.Set(k, v)
	}
	return out
}

// Equal reports whether two vectors match field by field.
func (r Resources) Equal(other Resources) bool {
	return r == other
}

// Rank is the derived account tier.
type Rank string

const (
	RankFree    Rank = "free"
	RankPremium Rank = "premium"
	RankAdmin   Rank = "admin"
)

// DeriveRank applies the rank rule table: admin is terminal and never
// downgraded by plan changes; otherwise premium iff any plan is owned.
func DeriveRank(current Rank, ownedPlans int) Rank {
	if current == RankAdmin {
		return RankAdmin
	}
	if ownedPlans > 0 {
		return RankPremium
	}
	return RankFree
}

// PlanGrant records what a plan added to the ledger when it was granted.
// Revocation subtracts this snapshot, not the plan's current resources, so
// later catalog edits never change what a revoke takes away. ExpiresAt is nil
// for permanent grants.
type PlanGrant struct {
	Resources Resources  `json:"resources"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the grant has an expiry in the past.
func (g PlanGrant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && g.ExpiresAt.Before(now)
}

// User is the per-user resource ledger. Limits is the entitlement side
// (what the user may provision); Usage is the consumption side (what the
// panel reports as provisioned right now). Usage may transiently exceed
// Limits when limits were reduced after provisioning; only new purchases
// and provisioning requests are gated.
type User struct {
	ID           int64                `json:"id"`
	Email        string               `json:"email"`
	Username     string               `json:"username"`
	PasswordHash string               `json:"-"`
	Rank         Rank                 `json:"rank"`
	Coins        int64                `json:"coins"`
	Limits       Resources            `json:"limits"`
	Usage        Resources            `json:"resources"`
	OwnedPlans   map[int64]PlanGrant  `json:"owned_plans"`
	PanelUserID  *int64               `json:"panel_user_id,omitempty"`
	Version      int64                `json:"-"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// OwnsPlan reports whether the user currently owns the plan.
func (u *User) OwnsPlan(planID int64) bool {
	_, ok := u.OwnedPlans[planID]
	return ok
}

// ExpiredPlans returns the IDs of owned plans whose grant expired before now,
// in ascending order.
func (u *User) ExpiredPlans(now time.Time) []int64 {
	var ids []int64
	for id, grant := range u.OwnedPlans {
		if grant.Expired(now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsAdmin reports whether the user holds the admin rank.
func (u *User) IsAdmin() bool {
	return u.Rank == RankAdmin
}
