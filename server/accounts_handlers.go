package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/mentions-console/adminmodel"
	"github.com/jrsteele09/mentions-console/internal/errors"
	"github.com/jrsteele09/mentions-console/internal/utils"
	"github.com/jrsteele09/mentions-console/views"
)

type selectOption struct {
	Value    string
	Label    string
	Selected bool
}

type accountFormView struct {
	IDPrefix          string
	Username          string
	DisplayName       string
	IsActive          bool
	PasswordRequired  bool
	PermissionsLocked bool
	Roles             []selectOption
	Permissions       []selectOption // Selected means checked
}

func newAccountFormView(prefix string, form views.AccountForm, create bool) accountFormView {
	v := accountFormView{
		IDPrefix:          prefix,
		Username:          form.Username,
		DisplayName:       form.DisplayName,
		IsActive:          form.IsActive,
		PasswordRequired:  create,
		PermissionsLocked: form.PermissionsLocked(),
	}
	for _, role := range adminmodel.Roles {
		v.Roles = append(v.Roles, selectOption{Value: string(role), Label: role.Label(), Selected: role == form.Role})
	}
	for _, p := range adminmodel.AllPermissions {
		v.Permissions = append(v.Permissions, selectOption{Value: string(p), Label: p.Label(), Selected: form.Checked(p)})
	}
	return v
}

type accountRow struct {
	ID           string
	Username     string
	DisplayName  string
	RoleLabel    string
	Permissions  string
	IsActive     bool
	LastLogin    string
	EditURL      string
	DeleteURL    string
	UpdateAction string
	DeleteAction string
}

func newAccountRow(a adminmodel.Account, state views.AccountsState) accountRow {
	labels := make([]string, 0, len(a.Permissions))
	for _, p := range adminmodel.EffectivePermissions(a.Role, a.Permissions) {
		labels = append(labels, p.Label())
	}
	edit := state
	edit.EditID, edit.DeleteID = a.ID, ""
	del := state
	del.EditID, del.DeleteID = "", a.ID
	return accountRow{
		ID:           a.ID,
		Username:     a.Username,
		DisplayName:  orDash(utils.Value(a.DisplayName)),
		RoleLabel:    a.Role.Label(),
		Permissions:  orDash(strings.Join(labels, ", ")),
		IsActive:     a.IsActive,
		LastLogin:    formatTime(a.LastLoginAt),
		EditURL:      withQuery(RouteAccounts, edit.Values()),
		DeleteURL:    withQuery(RouteAccounts, del.Values()),
		UpdateAction: accountPath(a.ID),
		DeleteAction: accountPath(a.ID) + "/delete",
	}
}

type accountEditDialog struct {
	Account accountRow
	Form    accountFormView
}

type accountsView struct {
	Rows          []accountRow
	Page          views.Page
	PrevURL       string
	NextURL       string
	Offset        int
	CloseURL      string
	Create        accountFormView
	Edit          *accountEditDialog
	ConfirmDelete *accountRow
}

// accountsRender carries the operator's input into a re-render
type accountsRender struct {
	state      views.AccountsState
	createForm views.AccountForm
	editForm   *views.AccountForm
	status     int
	flash      flash
}

func (s *Server) renderAccounts(w http.ResponseWriter, r *http.Request, in accountsRender) {
	session, _ := sessionFromContext(r.Context())
	ctrl := s.accountsController(session)

	list, page, err := ctrl.List(r.Context(), in.state.Offset)
	if s.unauthorized(w, r, err) {
		return
	}
	if err != nil && in.flash.Error == "" {
		in.flash.Error = displayMessage(err, "Failed to load accounts")
	}
	in.state.Offset = page.Offset

	view := accountsView{
		Page:     page,
		Offset:   page.Offset,
		CloseURL: withQuery(RouteAccounts, views.AccountsState{Offset: page.Offset}.Values()),
		Create:   newAccountFormView("create", in.createForm, true),
	}
	if list != nil {
		for _, a := range list.Items {
			view.Rows = append(view.Rows, newAccountRow(a, in.state))
		}
	}
	if page.HasPrevious() {
		view.PrevURL = withQuery(RouteAccounts, views.AccountsState{Offset: page.PreviousOffset()}.Values())
	}
	if page.HasNext() {
		view.NextURL = withQuery(RouteAccounts, views.AccountsState{Offset: page.NextOffset()}.Values())
	}

	if account, ok := views.FindAccount(list, in.state.EditID); ok {
		form := views.EditFormFor(account)
		if in.editForm != nil {
			form = *in.editForm
		}
		view.Edit = &accountEditDialog{
			Account: newAccountRow(account, in.state),
			Form:    newAccountFormView("edit", form, false),
		}
	} else if account, ok := views.FindAccount(list, in.state.DeleteID); ok {
		row := newAccountRow(account, in.state)
		view.ConfirmDelete = &row
	}

	s.renderAdminPage(w, r, in.status, "accounts", "Accounts", s.templates.accounts, view, in.flash)
}

// AccountsPageHandler lists accounts (GET /accounts)
func (s *Server) AccountsPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderAccounts(w, r, accountsRender{
			state:      views.ParseAccountsState(r.URL.Query()),
			createForm: views.DefaultAccountForm(),
			status:     http.StatusOK,
			flash:      flashFromQuery(r),
		})
	}
}

// AccountCreateHandler creates an account (POST /accounts). Success resets
// the create form; failure keeps the operator's input.
func (s *Server) AccountCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionFromContext(r.Context())
		state := views.AccountsState{Offset: views.ParseOffset(r.PostFormValue("offset"))}
		form := views.AccountFormFromValues(r.PostForm)

		account, err := s.accountsController(session).Create(r.Context(), form)
		if s.unauthorized(w, r, err) {
			return
		}
		if err != nil {
			form.Password = ""
			s.renderAccounts(w, r, accountsRender{
				state:      state,
				createForm: form,
				status:     http.StatusUnprocessableEntity,
				flash:      flash{Error: displayMessage(err, "Failed to create account")},
			})
			return
		}

		requestLogger(r).Info().Str("account", account.ID).Msg("account created")
		redirectWithNotice(w, r, withQuery(RouteAccounts, state.Values()), "Account "+account.Username+" created")
	}
}

// AccountUpdateHandler applies a partial update (POST /accounts/{id}).
// Success closes the dialog; failure re-opens it with the operator's input.
func (s *Server) AccountUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionFromContext(r.Context())
		accountID := r.PathValue("id")
		state := views.AccountsState{Offset: views.ParseOffset(r.PostFormValue("offset"))}
		form := views.AccountFormFromValues(r.PostForm)

		_, err := s.accountsController(session).Update(r.Context(), accountID, form)
		if s.unauthorized(w, r, err) {
			return
		}
		if err != nil {
			form.Password = ""
			state.EditID = accountID
			s.renderAccounts(w, r, accountsRender{
				state:      state,
				createForm: views.DefaultAccountForm(),
				editForm:   &form,
				status:     http.StatusUnprocessableEntity,
				flash:      flash{Error: displayMessage(err, "Failed to update account")},
			})
			return
		}

		requestLogger(r).Info().Str("account", accountID).Msg("account updated")
		redirectWithNotice(w, r, withQuery(RouteAccounts, state.Values()), "Account updated")
	}
}

// AccountDeleteHandler deletes an account (POST /accounts/{id}/delete).
// Without confirm=yes it only opens the confirmation dialog.
func (s *Server) AccountDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionFromContext(r.Context())
		accountID := r.PathValue("id")
		state := views.AccountsState{Offset: views.ParseOffset(r.PostFormValue("offset"))}
		confirmed := r.PostFormValue("confirm") == "yes"

		err := s.accountsController(session).Delete(r.Context(), accountID, confirmed)
		switch {
		case errors.Is(err, errors.ErrNotConfirmed):
			state.DeleteID = accountID
			redirectSuccess(w, r, withQuery(RouteAccounts, state.Values()))
			return
		case s.unauthorized(w, r, err):
			return
		case err != nil:
			redirectWithError(w, r, withQuery(RouteAccounts, state.Values()), displayMessage(err, "Failed to delete account"))
			return
		}

		requestLogger(r).Info().Str("account", accountID).Msg("account deleted")
		redirectWithNotice(w, r, withQuery(RouteAccounts, state.Values()), "Account deleted")
	}
}

func accountPath(accountID string) string {
	return RouteAccounts + "/" + url.PathEscape(accountID)
}
