package client

import (
	"context"
	"fmt"
)

// Admin endpoints require a token minted for an admin account.

// ListUsers returns a page of user accounts
func (c *Client) ListUsers(ctx context.Context, page, pageSize int) (*UserList, error) {
	path := fmt.Sprintf("/api/v1/admin/users?page=%d&page_size=%d", page, pageSize)

	var list UserList
	if err := c.doRequest(ctx, "GET", path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetUser returns a user account by ID
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/v1/admin/users/%d", id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// AdjustCoins credits (positive delta) or debits (negative delta) a user's balance
func (c *Client) AdjustCoins(ctx context.Context, userID, delta int64) (*User, error) {
	req := map[string]int64{"delta": delta}

	var u User
	if err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/admin/users/%d/coins", userID), req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetAdmin grants or removes the admin rank
func (c *Client) SetAdmin(ctx context.Context, userID int64, admin bool) (*User, error) {
	req := map[string]bool{"admin": admin}

	var u User
	if err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/admin/users/%d/admin", userID), req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// LinkPanel attaches an external panel account to a user
func (c *Client) LinkPanel(ctx context.Context, userID, panelUserID int64) (*User, error) {
	req := map[string]int64{"panel_user_id": panelUserID}

	var u User
	if err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/admin/users/%d/panel", userID), req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ReconcileUser refreshes a user's usage from the panel
func (c *Client) ReconcileUser(ctx context.Context, userID int64) (*ReconcileResult, error) {
	var res ReconcileResult
	if err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/admin/users/%d/reconcile", userID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteUser removes a user account
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.doRequest(ctx, "DELETE", fmt.Sprintf("/api/v1/admin/users/%d", id), nil, nil)
}

// ListAllPlans returns every catalog plan, hidden ones included
func (c *Client) ListAllPlans(ctx context.Context) ([]*Plan, error) {
	var plans []*Plan
	if err := c.doRequest(ctx, "GET", "/api/v1/admin/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// CreatePlan adds a plan to the catalog
func (c *Client) CreatePlan(ctx context.Context, req PlanRequest) (*Plan, error) {
	var p Plan
	if err := c.doRequest(ctx, "POST", "/api/v1/admin/plans", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePlan replaces a plan's catalog entry
func (c *Client) UpdatePlan(ctx context.Context, id int64, req PlanRequest) (*Plan, error) {
	var p Plan
	if err := c.doRequest(ctx, "PUT", fmt.Sprintf("/api/v1/admin/plans/%d", id), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePlan removes a plan from the catalog
func (c *Client) DeletePlan(ctx context.Context, id int64) error {
	return c.doRequest(ctx, "DELETE", fmt.Sprintf("/api/v1/admin/plans/%d", id), nil, nil)
}

// GrantPlan applies a plan's resources to a user's ledger
func (c *Client) GrantPlan(ctx context.Context, planID, userID int64) (*User, error) {
	var u User
	if err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/admin/plans/%d/grant/%d", planID, userID), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// RevokePlan removes a granted plan's resources from a user's ledger
func (c *Client) RevokePlan(ctx context.Context, planID, userID int64) (*User, error) {
	var u User
	if err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/admin/plans/%d/revoke/%d", planID, userID), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
