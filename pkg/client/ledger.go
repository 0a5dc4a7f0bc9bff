package client

import "context"

// Ledger returns the authenticated user's resource ledger
func (c *Client) Ledger(ctx context.Context) (*User, error) {
	var u User
	if err := c.doRequest(ctx, "GET", "/api/v1/ledger", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// RefreshLedger re-reads live usage from the panel and returns the result
func (c *Client) RefreshLedger(ctx context.Context) (*ReconcileResult, error) {
	var res ReconcileResult
	if err := c.doRequest(ctx, "POST", "/api/v1/ledger/refresh", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
