package api

import (
	"context"
	"net/http"
	"net/url"
)

// ListSweets returns the full inventory in server order.
func (c *Client) ListSweets(ctx context.Context) ([]Sweet, error) {
	var sweets []Sweet
	if err := c.do(ctx, "sweets_list", http.MethodGet, "/sweets", nil, nil, &sweets); err != nil {
		return nil, err
	}
	return sweets, nil
}

// SearchSweets returns the inventory matching the filter, in server
// order. Unset filter fields are omitted from the query entirely.
func (c *Client) SearchSweets(ctx context.Context, filter SearchFilter) ([]Sweet, error) {
	var sweets []Sweet
	if err := c.do(ctx, "sweets_search", http.MethodGet, "/sweets/search", filter.Query(), nil, &sweets); err != nil {
		return nil, err
	}
	return sweets, nil
}

// CreateSweet adds a new sweet. Requires an admin bearer token.
func (c *Client) CreateSweet(ctx context.Context, draft SweetDraft) (*Sweet, error) {
	var sweet Sweet
	if err := c.do(ctx, "sweets_create", http.MethodPost, "/sweets", nil, draft, &sweet); err != nil {
		return nil, err
	}
	return &sweet, nil
}

// UpdateSweet replaces the sweet with the given id. Requires an admin
// bearer token.
func (c *Client) UpdateSweet(ctx context.Context, id string, draft SweetDraft) (*Sweet, error) {
	var sweet Sweet
	if err := c.do(ctx, "sweets_update", http.MethodPut, "/sweets/"+url.PathEscape(id), nil, draft, &sweet); err != nil {
		return nil, err
	}
	return &sweet, nil
}

// DeleteSweet removes the sweet with the given id. Requires an admin
// bearer token.
func (c *Client) DeleteSweet(ctx context.Context, id string) error {
	return c.do(ctx, "sweets_delete", http.MethodDelete, "/sweets/"+url.PathEscape(id), nil, nil, nil)
}

// Purchase buys quantity units of the sweet. The backend re-validates
// stock and rejects over-selling with a conflict error; callers must be
// prepared for that even after a successful client-side pre-check.
func (c *Client) Purchase(ctx context.Context, id string, quantity int) (*Sweet, error) {
	var sweet Sweet
	err := c.do(ctx, "sweets_purchase", http.MethodPost,
		"/sweets/"+url.PathEscape(id)+"/purchase", nil, quantityRequest{Quantity: quantity}, &sweet)
	if err != nil {
		return nil, err
	}
	return &sweet, nil
}

// Restock adds quantity units of stock. Requires an admin bearer token.
func (c *Client) Restock(ctx context.Context, id string, quantity int) (*Sweet, error) {
	var sweet Sweet
	err := c.do(ctx, "sweets_restock", http.MethodPost,
		"/sweets/"+url.PathEscape(id)+"/restock", nil, quantityRequest{Quantity: quantity}, &sweet)
	if err != nil {
		return nil, err
	}
	return &sweet, nil
}
