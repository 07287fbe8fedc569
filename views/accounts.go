package views

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/mentions-console/adminapi"
	"github.com/jrsteele09/mentions-console/adminmodel"
	"github.com/jrsteele09/mentions-console/internal/errors"
	"github.com/jrsteele09/mentions-console/internal/utils"
	"github.com/jrsteele09/mentions-console/querycache"
)

// AccountsAPI is the subset of the API client used by the accounts view
type AccountsAPI interface {
	ListAccounts(ctx context.Context, params adminapi.AccountListParams) (*adminmodel.AccountList, error)
	CreateAccount(ctx context.Context, payload adminmodel.AccountCreatePayload) (*adminmodel.Account, error)
	UpdateAccount(ctx context.Context, accountID string, payload adminmodel.AccountUpdatePayload) (*adminmodel.Account, error)
	DeleteAccount(ctx context.Context, accountID string) error
}

// AccountForm holds the create and edit form fields as the operator typed them
type AccountForm struct {
	Username    string
	Password    string
	DisplayName string
	Role        adminmodel.Role
	Permissions []adminmodel.Permission
	IsActive    bool
}

func DefaultAccountForm() AccountForm {
	return AccountForm{
		Role:        adminmodel.RoleModerator,
		Permissions: []adminmodel.Permission{adminmodel.PermissionMentions},
		IsActive:    true,
	}
}

// EditFormFor pre-fills the edit dialog; the password is always blank
func EditFormFor(account adminmodel.Account) AccountForm {
	return AccountForm{
		Username:    account.Username,
		DisplayName: utils.Value(account.DisplayName),
		Role:        account.Role,
		Permissions: append([]adminmodel.Permission(nil), account.Permissions...),
		IsActive:    account.IsActive,
	}
}

// AccountFormFromValues reads a submitted account form
func AccountFormFromValues(v url.Values) AccountForm {
	form := AccountForm{
		Username:    v.Get("username"),
		Password:    v.Get("password"),
		DisplayName: v.Get("display_name"),
		Role:        adminmodel.Role(v.Get("role")),
		IsActive:    checkbox(v.Get("is_active")),
	}
	for _, p := range v["permissions"] {
		form.Permissions = append(form.Permissions, adminmodel.Permission(p))
	}
	return form
}

// PermissionsLocked reports whether the permission checkboxes are fixed
// because the role grants everything
func (f AccountForm) PermissionsLocked() bool {
	return f.Role == adminmodel.RoleAdmin
}

// Checked reports whether a permission checkbox renders ticked
func (f AccountForm) Checked(p adminmodel.Permission) bool {
	for _, held := range adminmodel.EffectivePermissions(f.Role, f.Permissions) {
		if held == p {
			return true
		}
	}
	return false
}

func (f AccountForm) permissions() ([]adminmodel.Permission, error) {
	if !f.Role.Valid() {
		return nil, errors.ErrInvalidRole
	}
	perms := adminmodel.EffectivePermissions(f.Role, f.Permissions)
	if len(perms) == 0 {
		return nil, errors.ErrEmptyPermissions
	}
	return perms, nil
}

// BuildCreatePayload validates the create form and builds the request body
func BuildCreatePayload(f AccountForm) (adminmodel.AccountCreatePayload, error) {
	username := strings.TrimSpace(f.Username)
	if username == "" || strings.TrimSpace(f.Password) == "" {
		return adminmodel.AccountCreatePayload{}, errors.ErrMissingCredentials
	}
	perms, err := f.permissions()
	if err != nil {
		return adminmodel.AccountCreatePayload{}, err
	}
	return adminmodel.AccountCreatePayload{
		Username:    username,
		Password:    f.Password,
		DisplayName: utils.TrimmedPtr(f.DisplayName),
		Role:        f.Role,
		Permissions: perms,
		IsActive:    f.IsActive,
	}, nil
}

// BuildUpdatePayload builds a partial update. Role, permissions, active flag
// and display name are always sent; username and password only when filled in.
func BuildUpdatePayload(f AccountForm) (adminmodel.AccountUpdatePayload, error) {
	perms, err := f.permissions()
	if err != nil {
		return adminmodel.AccountUpdatePayload{}, err
	}
	role := f.Role
	return adminmodel.AccountUpdatePayload{
		Username:    utils.TrimmedPtr(f.Username),
		Password:    utils.TrimmedPtr(f.Password),
		DisplayName: adminmodel.NewNullString(utils.TrimmedPtr(f.DisplayName)),
		Role:        &role,
		Permissions: &perms,
		IsActive:    utils.Ptr(f.IsActive),
	}, nil
}

// AccountsState is the URL-carried state of the accounts page
type AccountsState struct {
	Offset   int
	EditID   string // account whose edit dialog is open
	DeleteID string // account awaiting delete confirmation
}

func ParseAccountsState(v url.Values) AccountsState {
	return AccountsState{
		Offset:   ParseOffset(v.Get("offset")),
		EditID:   strings.TrimSpace(v.Get("edit")),
		DeleteID: strings.TrimSpace(v.Get("delete")),
	}
}

func (s AccountsState) Values() url.Values {
	v := url.Values{}
	if s.Offset > 0 {
		v.Set("offset", strconv.Itoa(s.Offset))
	}
	if s.EditID != "" {
		v.Set("edit", s.EditID)
	}
	if s.DeleteID != "" {
		v.Set("delete", s.DeleteID)
	}
	return v
}

// AccountsController runs the accounts page actions for one login session
type AccountsController struct {
	api   AccountsAPI
	cache querycache.Scoped
	limit int
}

func NewAccountsController(api AccountsAPI, cache querycache.Scoped, pageSize int) *AccountsController {
	if pageSize <= 0 {
		pageSize = 25
	}
	return &AccountsController{api: api, cache: cache, limit: pageSize}
}

func (c *AccountsController) fetch(ctx context.Context, params adminapi.AccountListParams) (*adminmodel.AccountList, error) {
	key := c.cache.Key(querycache.KindAccounts, params.Values())
	return querycache.Fetch(c.cache.Cache(), key, func() (*adminmodel.AccountList, error) {
		return c.api.ListAccounts(ctx, params)
	})
}

// List returns the page at offset. When the total has shrunk below the
// offset the last page is returned instead.
func (c *AccountsController) List(ctx context.Context, offset int) (*adminmodel.AccountList, Page, error) {
	page := NewPage(c.limit, offset, 0)
	list, err := c.fetch(ctx, adminapi.AccountListParams{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, page, err
	}
	page.Total = list.Total

	if clamped := page.Clamp(); clamped.Offset != page.Offset {
		page = clamped
		list, err = c.fetch(ctx, adminapi.AccountListParams{Limit: page.Limit, Offset: page.Offset})
		if err != nil {
			return nil, page, err
		}
		page.Total = list.Total
	}
	return list, page, nil
}

// Count returns the total number of accounts
func (c *AccountsController) Count(ctx context.Context) (int, error) {
	list, err := c.fetch(ctx, adminapi.AccountListParams{Limit: 1, Offset: 0})
	if err != nil {
		return 0, err
	}
	return list.Total, nil
}

func (c *AccountsController) Create(ctx context.Context, form AccountForm) (*adminmodel.Account, error) {
	payload, err := BuildCreatePayload(form)
	if err != nil {
		return nil, err
	}
	account, err := c.api.CreateAccount(ctx, payload)
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(querycache.KindAccounts)
	return account, nil
}

func (c *AccountsController) Update(ctx context.Context, accountID string, form AccountForm) (*adminmodel.Account, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, errors.ErrNotFound
	}
	payload, err := BuildUpdatePayload(form)
	if err != nil {
		return nil, err
	}
	account, err := c.api.UpdateAccount(ctx, accountID, payload)
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(querycache.KindAccounts)
	return account, nil
}

// Delete removes an account. Nothing is sent unless confirmed is true.
func (c *AccountsController) Delete(ctx context.Context, accountID string, confirmed bool) error {
	if !confirmed {
		return errors.ErrNotConfirmed
	}
	if strings.TrimSpace(accountID) == "" {
		return errors.ErrNotFound
	}
	if err := c.api.DeleteAccount(ctx, accountID); err != nil {
		return err
	}
	c.cache.Invalidate(querycache.KindAccounts)
	return nil
}

// FindAccount looks an account up by id within a fetched page
func FindAccount(list *adminmodel.AccountList, accountID string) (adminmodel.Account, bool) {
	if list == nil || accountID == "" {
		return adminmodel.Account{}, false
	}
	for _, a := range list.Items {
		if a.ID == accountID {
			return a, true
		}
	}
	return adminmodel.Account{}, false
}

func checkbox(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
