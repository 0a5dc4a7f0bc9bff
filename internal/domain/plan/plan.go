package plan

import (
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
)

// Plan is a named bundle of entitlement grants a user can own. Its resource
// vector contributes additively to a user's limits while owned. DurationDays
// of zero means grants of this plan never expire; otherwise each grant is
// stamped with an expiry that far in the future and swept afterwards.
type Plan struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Resources    ledger.Resources `json:"resources"`
	Price        int64            `json:"price"`
	DurationDays int64            `json:"duration_days"`
	Visible      bool             `json:"visible"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// GrantDuration returns the lifetime of a grant, or zero for permanent plans.
func (p *Plan) GrantDuration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}
