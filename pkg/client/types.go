package client

import "time"

// Resources is a bundle of server resource amounts
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

// User is a user account with its resource ledger
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Rank        string    `json:"rank"`
	Coins       int64     `json:"coins"`
	Limits      Resources `json:"limits"`
	Usage       Resources `json:"resources"`
	OwnedPlans  []int64   `json:"owned_plans"`
	PanelUserID *int64    `json:"panel_user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Plan is a catalog plan. DurationDays of zero means grants never expire.
type Plan struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Resources    Resources `json:"resources"`
	Price        int64     `json:"price"`
	DurationDays int64     `json:"duration_days"`
	Visible      bool      `json:"visible"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Price is the shop price for one resource
type Price struct {
	Enabled bool  `json:"enabled"`
	Amount  int64 `json:"amount"`
	Cost    int64 `json:"cost"`
}

// ShopTable lists purchasable resources and their ceilings
type ShopTable struct {
	Prices    map[string]Price `json:"prices"`
	MaxLimits map[string]int64 `json:"max_limits"`
}

// PurchaseResult describes the outcome of a shop purchase
type PurchaseResult struct {
	Resource           string `json:"resource"`
	Quantity           int64  `json:"quantity"`
	Amount             int64  `json:"amount"`
	Cost               int64  `json:"cost"`
	Coins              int64  `json:"coins"`
	NewLimit           int64  `json:"new_limit"`
	State              string `json:"state"`
	NotificationQueued bool   `json:"notification_queued"`
}

// ReconcileResult describes a usage refresh against the panel
type ReconcileResult struct {
	Usage       Resources `json:"resources"`
	DemoSkipped int       `json:"demo_servers_skipped"`
	Updated     bool      `json:"updated"`
	ElapsedMS   float64   `json:"elapsed_ms"`
}

// UserList is a paginated list of users
type UserList struct {
	Data       []*User `json:"data"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalItems int64   `json:"total_items"`
	TotalPages int     `json:"total_pages"`
}
