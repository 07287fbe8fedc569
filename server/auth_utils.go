package server

import (
	"net/http"
	"net/url"
	"strings"
)

const csrfFieldName = "_csrf"

func (s *Server) SetLoginSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetSessionCookieName(),
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	s.SetLoginSessionCookie(w, r, "", -1)
}

// expireSession clears the cookie and sends the operator to the login page
// with the session-expired notice. The stored session is already gone by
// the time this runs.
func (s *Server) expireSession(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w, r)
	redirectWithError(w, r, RouteLogin, msgSessionExpired)
}

// redirectToLogin sends the operator to the login page, remembering where
// they were going. Requests for the login page itself are never redirected.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	q := url.Values{}
	if next := r.URL.RequestURI(); r.Method == http.MethodGet && safeNext(next) != "" && r.URL.Path != RouteDashboard {
		q.Set("next", next)
	}
	redirectSuccess(w, r, withQuery(RouteLogin, q))
}

// safeNext accepts only local absolute paths; anything else yields ""
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ""
	}
	if u.Path == RouteLogin || u.Path == RouteLogout {
		return ""
	}
	return next
}

// withQuery appends query values to a path that may already carry some
func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectSuccess(w, r, withQuery(path, url.Values{"error": {errorMsg}}))
}

// redirectWithNotice redirects with a non-error flash message
func redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	redirectSuccess(w, r, withQuery(path, url.Values{"notice": {notice}}))
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
