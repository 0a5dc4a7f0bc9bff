package dto

import "github.com/hostdeck/hostdeck/internal/domain/ledger"

// PlanRequest creates or updates a catalog plan. DurationDays of zero makes
// grants permanent.
type PlanRequest struct {
	Name         string           `json:"name" validate:"required,min=1,max=100"`
	Description  string           `json:"description"`
	Resources    ledger.Resources `json:"resources"`
	Price        int64            `json:"price" validate:"gte=0"`
	DurationDays int64            `json:"duration_days" validate:"gte=0"`
	Visible      bool             `json:"visible"`
}
