package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/mentions-console/internal/errors"
	"github.com/jrsteele09/mentions-console/server/loginsession"
	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName  string
	Error    string
	Notice   string
	Username string // Preserve username on error
	Next     string
}

// LoginPageHandler displays the login page (GET /login). Operators with a
// live session go straight to the dashboard.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(s.config.GetSessionCookieName()); err == nil && cookie.Value != "" {
			if _, err := s.sessions.Get(r.Context(), cookie.Value); err == nil {
				redirectSuccess(w, r, RouteDashboard)
				return
			}
			s.clearSessionCookie(w, r)
		}

		q := r.URL.Query()
		s.renderLogin(w, r, http.StatusOK, LoginPageData{
			Error:  q.Get("error"),
			Notice: q.Get("notice"),
			Next:   safeNext(q.Get("next")),
		})
	}
}

// LoginSubmissionHandler processes the login form submission. Failures are
// shown on the form itself; nothing is stored.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		username := r.PostFormValue("username")
		password := r.PostFormValue("password")
		next := safeNext(r.PostFormValue("next"))

		session, err := s.sessions.Login(r.Context(), username, password)
		if err != nil {
			status, msg := loginFailure(err)
			log.Info().Err(err).Str("username", strings.TrimSpace(username)).Msg("login failed")
			s.renderLogin(w, r, status, LoginPageData{
				Error:    msg,
				Username: username,
				Next:     next,
			})
			return
		}

		s.SetLoginSessionCookie(w, r, session.ID, s.cookieMaxAge(session))
		if next == "" {
			next = RouteDashboard
		}
		redirectSuccess(w, r, next)
	}
}

// LogoutPageHandler asks the operator to confirm (GET /logout). Signing
// out only happens on the CSRF-checked POST.
func (s *Server) LogoutPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderAdminPage(w, r, http.StatusOK, "logout", "Logout", s.templates.logout, nil, flashFromQuery(r))
	}
}

// LogoutHandler ends the session (POST /logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionFromContext(r.Context())
		s.sessions.Logout(session.ID)
		s.clearSessionCookie(w, r)
		redirectWithNotice(w, r, RouteLogin, msgLoggedOut)
	}
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, data LoginPageData) {
	data.AppName = s.config.GetAppName()

	var page strings.Builder
	if err := s.templates.login.Execute(&page, data); err != nil {
		requestLogger(r).Err(err).Msg("Failed to render login template")
		http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(page.String()))
}

// cookieMaxAge keeps the cookie no longer than the session itself
func (s *Server) cookieMaxAge(session loginsession.Session) int {
	if session.ExpiresAt.IsZero() {
		return int(s.config.GetMaxSessionAge() / time.Second)
	}
	d := session.ExpiresAt.Sub(session.CreatedAt)
	if d < time.Second {
		d = time.Second
	}
	return int(d / time.Second)
}

func loginFailure(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrMissingCredentials):
		return http.StatusBadRequest, "Username and password are required"
	case errors.Is(err, errors.ErrUnauthorized):
		return http.StatusUnauthorized, displayMessage(err, "Invalid username or password")
	case errors.Is(err, errors.ErrTransport):
		return http.StatusBadGateway, msgNetworkError
	}
	return http.StatusBadRequest, displayMessage(err, "Login failed")
}
