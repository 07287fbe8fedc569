package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/mentions-console/adminmodel"
	"github.com/jrsteele09/mentions-console/internal/errors"
	"github.com/jrsteele09/mentions-console/server/loginsession"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the rehydrated login session
	ContextKeySession ContextKey = "session"
	// ContextKeyRequestID stores the per-request id
	ContextKeyRequestID ContextKey = "request_id"
)

// RequireSession is middleware for console pages. It rehydrates the session
// from the cookie and sends the operator to the login page when there is
// none. Expired or rejected sessions are cleared and the login page shows a
// one-time notice.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(s.config.GetSessionCookieName())
			if err != nil || cookie.Value == "" {
				redirectToLogin(w, r)
				return
			}

			session, err := s.sessions.Get(r.Context(), cookie.Value)
			switch {
			case err == nil:
			case errors.Is(err, errors.ErrSessionExpired), errors.Is(err, errors.ErrUnauthorized):
				s.expireSession(w, r)
				return
			case errors.Is(err, errors.ErrSessionNotFound):
				s.clearSessionCookie(w, r)
				redirectToLogin(w, r)
				return
			default:
				requestLogger(r).Err(err).Msg("failed to load login session")
				http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequirePermission blocks operators whose known profile lacks p. When the
// profile could not be loaded the API remains the gatekeeper.
func (s *Server) RequirePermission(p adminmodel.Permission) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			session, ok := sessionFromContext(r.Context())
			if ok && session.User != nil && !session.User.Can(p) {
				redirectWithError(w, r, RouteDashboard, "You do not have access to "+p.Label())
				return
			}
			next(w, r)
		}
	}
}

// CSRFMiddleware validates the session's anti-forgery token on state
// changing requests. It must run after RequireSession.
func (s *Server) CSRFMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next(w, r)
			return
		}

		session, ok := sessionFromContext(r.Context())
		if !ok {
			http.Error(w, "403 - Forbidden", http.StatusForbidden)
			return
		}

		token := r.Header.Get("X-CSRF-Token")
		if token == "" {
			token = r.FormValue(csrfFieldName)
		}
		if !s.csrf.Validate(session.ID, token) {
			requestLogger(r).Warn().Err(errors.ErrInvalidCSRF).Str("path", r.URL.Path).Msg("rejected request")
			http.Error(w, "403 - "+errors.ErrInvalidCSRF.Error(), http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func sessionFromContext(ctx context.Context) (loginsession.Session, bool) {
	session, ok := ctx.Value(ContextKeySession).(loginsession.Session)
	return session, ok
}
