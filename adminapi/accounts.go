package adminapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/mentions-console/adminmodel"
)

const pathAccounts = "/api/accounts"

type AccountListParams struct {
	Limit  int
	Offset int
}

func (p AccountListParams) Values() url.Values {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(p.Limit))
	v.Set("offset", strconv.Itoa(p.Offset))
	return v
}

func accountPath(accountID string) string {
	return pathAccounts + "/" + url.PathEscape(accountID)
}

func (c *Client) ListAccounts(ctx context.Context, params AccountListParams) (*adminmodel.AccountList, error) {
	var list adminmodel.AccountList
	if err := c.do(ctx, http.MethodGet, pathAccounts, params.Values(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) CreateAccount(ctx context.Context, payload adminmodel.AccountCreatePayload) (*adminmodel.Account, error) {
	var account adminmodel.Account
	if err := c.do(ctx, http.MethodPost, pathAccounts, nil, payload, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccount applies a partial update; only non-nil payload fields are sent
func (c *Client) UpdateAccount(ctx context.Context, accountID string, payload adminmodel.AccountUpdatePayload) (*adminmodel.Account, error) {
	var account adminmodel.Account
	if err := c.do(ctx, http.MethodPatch, accountPath(accountID), nil, payload, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) DeleteAccount(ctx context.Context, accountID string) error {
	return c.do(ctx, http.MethodDelete, accountPath(accountID), nil, nil, nil)
}
