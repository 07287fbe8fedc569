package adminmodel

import (
	"strings"
	"time"
)

// Role is the access level of an operator account
type Role string

const (
	RoleAdmin     Role = "admin"     // Full access, always holds every permission
	RoleModerator Role = "moderator" // Access limited to the granted permissions
)

// Roles lists the selectable roles in display order
var Roles = []Role{RoleAdmin, RoleModerator}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleModerator
}

func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleModerator:
		return "Moderator"
	}
	return string(r)
}

// Permission is a named capability grantable to a moderator
type Permission string

const (
	PermissionMentions Permission = "mentions"
	PermissionAccounts Permission = "accounts"
)

// AllPermissions is the full permission set in canonical order
var AllPermissions = []Permission{PermissionMentions, PermissionAccounts}

func (p Permission) Label() string {
	switch p {
	case PermissionMentions:
		return "Mentions"
	case PermissionAccounts:
		return "Accounts"
	}
	return string(p)
}

// EffectivePermissions returns the permission set that is sent for a role.
// Admins always receive the full set regardless of the selection. For
// moderators the selection is de-duplicated, unknown values dropped, and
// returned in canonical order.
func EffectivePermissions(role Role, selected []Permission) []Permission {
	if role == RoleAdmin {
		return append([]Permission(nil), AllPermissions...)
	}
	chosen := make(map[Permission]bool, len(selected))
	for _, p := range selected {
		chosen[p] = true
	}
	effective := make([]Permission, 0, len(AllPermissions))
	for _, p := range AllPermissions {
		if chosen[p] {
			effective = append(effective, p)
		}
	}
	return effective
}

// Account is an operator account as returned by the API
type Account struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	DisplayName *string      `json:"display_name,omitempty"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
	IsActive    bool         `json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	LastLoginAt *time.Time   `json:"last_login_at,omitempty"`
}

// DisplayLabel prefers the display name, then the username
func (a *Account) DisplayLabel() string {
	if a == nil {
		return "Admin"
	}
	if a.DisplayName != nil && strings.TrimSpace(*a.DisplayName) != "" {
		return strings.TrimSpace(*a.DisplayName)
	}
	if a.Username != "" {
		return a.Username
	}
	return "Admin"
}

// Initials returns up to two upper-case initials of the display label
func (a *Account) Initials() string {
	var initials []rune
	for _, word := range strings.Fields(a.DisplayLabel()) {
		initials = append(initials, []rune(word)[0])
		if len(initials) == 2 {
			break
		}
	}
	return strings.ToUpper(string(initials))
}

// Can reports whether the account holds a permission; admins hold all
func (a *Account) Can(p Permission) bool {
	if a == nil {
		return false
	}
	if a.Role == RoleAdmin {
		return true
	}
	for _, held := range a.Permissions {
		if held == p {
			return true
		}
	}
	return false
}

type AccountList struct {
	Items []Account `json:"items"`
	Total int       `json:"total"`
}

// AccountCreatePayload is the body of POST /api/accounts.
// DisplayName is sent as null when nil.
type AccountCreatePayload struct {
	Username    string       `json:"username"`
	Password    string       `json:"password"`
	DisplayName *string      `json:"display_name"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
	IsActive    bool         `json:"is_active"`
}

// AccountUpdatePayload is the body of PATCH /api/accounts/{id}.
// Nil fields are omitted so only provided fields are changed.
type AccountUpdatePayload struct {
	Username    *string       `json:"username,omitempty"`
	Password    *string       `json:"password,omitempty"`
	DisplayName *NullString   `json:"display_name,omitempty"`
	Role        *Role         `json:"role,omitempty"`
	Permissions *[]Permission `json:"permissions,omitempty"`
	IsActive    *bool         `json:"is_active,omitempty"`
}
