package api

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a bearer token. The token is not
// attached automatically; call SetToken with the result.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	var tok Token
	err := c.do(ctx, "auth_login", http.MethodPost, "/auth/login", nil,
		loginRequest{Username: username, Password: password}, &tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, reg Registration) (*RegisterResult, error) {
	var result RegisterResult
	err := c.do(ctx, "auth_register", http.MethodPost, "/auth/register", nil, reg, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Me returns the identity behind the attached bearer token. It is the
// authoritative source for the admin flag.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var id Identity
	if err := c.do(ctx, "auth_me", http.MethodGet, "/auth/me", nil, nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}
