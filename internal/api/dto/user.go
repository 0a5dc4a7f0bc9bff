package dto

import (
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
)

// UserDTO is the public view of a user account and its ledger.
type UserDTO struct {
	ID          int64            `json:"id"`
	Email       string           `json:"email"`
	Username    string           `json:"username"`
	Rank        ledger.Rank      `json:"rank"`
	Coins       int64            `json:"coins"`
	Limits      ledger.Resources `json:"limits"`
	Usage       ledger.Resources `json:"resources"`
	OwnedPlans  []int64          `json:"owned_plans"`
	PanelUserID *int64           `json:"panel_user_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NewUserDTO converts a domain user
func NewUserDTO(u *ledger.User) *UserDTO {
	planIDs := make([]int64, 0, len(u.OwnedPlans))
	for id := range u.OwnedPlans {
		planIDs = append(planIDs, id)
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		Rank:        u.Rank,
		Coins:       u.Coins,
		Limits:      u.Limits,
		Usage:       u.Usage,
		OwnedPlans:  planIDs,
		PanelUserID: u.PanelUserID,
		CreatedAt:   u.CreatedAt,
	}
}

// UpdateProfileRequest represents a profile update
type UpdateProfileRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50"`
}

// AdjustCoinsRequest credits or debits a user's coin balance
type AdjustCoinsRequest struct {
	Delta int64 `json:"delta" validate:"required"`
}

// SetAdminRequest grants or removes the admin rank
type SetAdminRequest struct {
	Admin bool `json:"admin"`
}

// LinkPanelRequest attaches an external panel account
type LinkPanelRequest struct {
	PanelUserID int64 `json:"panel_user_id" validate:"required,gt=0"`
}
