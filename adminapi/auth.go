package adminapi

import (
	"context"
	"net/http"

	"github.com/jrsteele09/mentions-console/adminmodel"
)

const (
	pathLogin = "/api/auth/login"
	pathMe    = "/api/auth/me"
)

// Login exchanges operator credentials for a bearer token
func (c *Client) Login(ctx context.Context, req adminmodel.LoginRequest) (*adminmodel.LoginResponse, error) {
	var resp adminmodel.LoginResponse
	if err := c.do(ctx, http.MethodPost, pathLogin, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentUser fetches the profile of the token's owner
func (c *Client) CurrentUser(ctx context.Context) (*adminmodel.Account, error) {
	var account adminmodel.Account
	if err := c.do(ctx, http.MethodGet, pathMe, nil, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}
