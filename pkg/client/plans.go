package client

import (
	"context"
	"fmt"
)

// PlanRequest creates or updates a catalog plan
type PlanRequest struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Resources    Resources `json:"resources"`
	Price        int64     `json:"price"`
	DurationDays int64     `json:"duration_days"`
	Visible      bool      `json:"visible"`
}

// Plans lists the visible catalog plans
func (c *Client) Plans(ctx context.Context) ([]*Plan, error) {
	var plans []*Plan
	if err := c.doRequest(ctx, "GET", "/api/v1/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Plan returns a single catalog plan
func (c *Client) Plan(ctx context.Context, id int64) (*Plan, error) {
	var p Plan
	if err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/v1/plans/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
