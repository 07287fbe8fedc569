package server

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jrsteele09/mentions-console/adminapi"
	"github.com/jrsteele09/mentions-console/adminmodel"
	"github.com/jrsteele09/mentions-console/internal/errors"
	"github.com/jrsteele09/mentions-console/server/loginsession"
	"github.com/jrsteele09/mentions-console/views"
)

const contentTypeHTML = "text/html; charset=utf-8"

// flash is the one-shot notification shown at the top of a page
type flash struct {
	Error  string
	Notice string
}

func flashFromQuery(r *http.Request) flash {
	q := r.URL.Query()
	return flash{Error: q.Get("error"), Notice: q.Get("notice")}
}

type layoutData struct {
	AppName     string
	PageTitle   string
	ActivePage  string
	UserLabel   string
	Initials    string
	RoleLabel   string
	CanMentions bool
	CanAccounts bool
	CSRFToken   string
	Error       string
	Notice      string
	Content     template.HTML
}

// contentData is handed to every content template
type contentData struct {
	CSRFToken string
	View      any
}

// renderAdminPage renders a content template inside the console layout
func (s *Server) renderAdminPage(w http.ResponseWriter, r *http.Request, status int, activePage, pageTitle string, content *template.Template, view any, f flash) {
	session, _ := sessionFromContext(r.Context())
	csrfToken := s.csrf.Token(session.ID)

	var contentBuf strings.Builder
	if err := content.Execute(&contentBuf, contentData{CSRFToken: csrfToken, View: view}); err != nil {
		requestLogger(r).Err(err).Str("page", activePage).Msg("failed to render content")
		http.Error(w, "Failed to render content", http.StatusInternalServerError)
		return
	}

	user := session.User
	data := layoutData{
		AppName:     s.config.GetAppName(),
		PageTitle:   pageTitle,
		ActivePage:  activePage,
		UserLabel:   user.DisplayLabel(),
		Initials:    user.Initials(),
		CanMentions: canAccess(session, adminmodel.PermissionMentions),
		CanAccounts: canAccess(session, adminmodel.PermissionAccounts),
		CSRFToken:   csrfToken,
		Error:       f.Error,
		Notice:      f.Notice,
		Content:     template.HTML(contentBuf.String()),
	}
	if user != nil {
		data.RoleLabel = user.Role.Label()
	}

	var page strings.Builder
	if err := s.templates.layout.Execute(&page, data); err != nil {
		requestLogger(r).Err(err).Msg("failed to render layout")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(page.String()))
}

// canAccess reports whether navigation to a permission-gated page is
// offered. Without a profile the API decides.
func canAccess(session loginsession.Session, p adminmodel.Permission) bool {
	return session.User == nil || session.User.Can(p)
}

// unauthorized ends the request with a redirect to the login page when err
// is a rejected session
func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, errors.ErrUnauthorized) {
		return false
	}
	s.expireSession(w, r)
	return true
}

// displayMessage turns an error into operator-facing text
func displayMessage(err error, fallback string) string {
	msg := adminapi.MessageFromError(err, fallback)
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "—"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

func countLabel(n *int) string {
	if n == nil {
		return "—"
	}
	return strconv.Itoa(*n)
}

type dashboardView struct {
	AccountsCount string
	PostedCount   string
	ShowMentions  bool
	ShowAccounts  bool
}

// DashboardHandler renders the landing page with headline counts
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionFromContext(r.Context())

		var (
			accounts *views.AccountsController
			mentions *views.MentionsController
		)
		if canAccess(session, adminmodel.PermissionAccounts) {
			accounts = s.accountsController(session)
		}
		if canAccess(session, adminmodel.PermissionMentions) {
			mentions = s.mentionsController(session)
		}

		stats, err := views.LoadDashboard(r.Context(), accounts, mentions)
		if s.unauthorized(w, r, err) {
			return
		}

		view := dashboardView{
			AccountsCount: countLabel(stats.Accounts),
			PostedCount:   countLabel(stats.PostedMentions),
			ShowMentions:  mentions != nil,
			ShowAccounts:  accounts != nil,
		}
		s.renderAdminPage(w, r, http.StatusOK, "dashboard", "Dashboard", s.templates.dashboard, view, flashFromQuery(r))
	}
}

func (s *Server) accountsController(session loginsession.Session) *views.AccountsController {
	return views.NewAccountsController(s.sessions.Client(session), s.cache.Scope(session.ID), s.config.GetPageSize())
}

func (s *Server) mentionsController(session loginsession.Session) *views.MentionsController {
	return views.NewMentionsController(s.sessions.Client(session), s.cache.Scope(session.ID), s.config.GetPageSize())
}
