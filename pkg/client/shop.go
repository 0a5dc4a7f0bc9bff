package client

import "context"

// PurchaseRequest represents a shop purchase
type PurchaseRequest struct {
	Resource string `json:"resource"`
	Quantity int64  `json:"quantity"`
}

// ShopTable returns the shop's prices and limit ceilings
func (c *Client) ShopTable(ctx context.Context) (*ShopTable, error) {
	var t ShopTable
	if err := c.doRequest(ctx, "GET", "/api/v1/shop", nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Purchase buys quantity units of a resource with coins
func (c *Client) Purchase(ctx context.Context, resource string, quantity int64) (*PurchaseResult, error) {
	req := PurchaseRequest{Resource: resource, Quantity: quantity}

	var res PurchaseResult
	if err := c.doRequest(ctx, "POST", "/api/v1/shop/purchase", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
