package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/mentions-console/adminmodel"
	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	// Unmatched GETs land on the dashboard, which the guard sends to /login when logged out
	s.RegisterRouteHandler("GET "+RouteRoot, ChainMiddleware(s.RootRedirectHandler(), s.HTMLMiddleWare()...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteLogout, ChainMiddleware(s.LogoutPageHandler(), s.HTMLMiddleWare(s.RequireSession())...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.RequireSession(), s.CSRFMiddleware)...))

	// Console routes (require a login session)
	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare(s.RequireSession())...))

	s.RegisterRouteHandler("GET "+RouteMentions, ChainMiddleware(s.MentionsPageHandler(), s.consoleMiddleware(adminmodel.PermissionMentions)...))
	s.RegisterRouteHandler("POST "+RouteMentionsStatus, ChainMiddleware(s.MentionStatusHandler(), s.consoleMiddleware(adminmodel.PermissionMentions)...))
	s.RegisterRouteHandler("POST "+RouteMentionsManual, ChainMiddleware(s.MentionManualHandler(), s.consoleMiddleware(adminmodel.PermissionMentions)...))

	s.RegisterRouteHandler("GET "+RouteAccounts, ChainMiddleware(s.AccountsPageHandler(), s.consoleMiddleware(adminmodel.PermissionAccounts)...))
	s.RegisterRouteHandler("POST "+RouteAccounts, ChainMiddleware(s.AccountCreateHandler(), s.consoleMiddleware(adminmodel.PermissionAccounts)...))
	s.RegisterRouteHandler("POST "+RouteAccount, ChainMiddleware(s.AccountUpdateHandler(), s.consoleMiddleware(adminmodel.PermissionAccounts)...))
	s.RegisterRouteHandler("POST "+RouteAccountDelete, ChainMiddleware(s.AccountDeleteHandler(), s.consoleMiddleware(adminmodel.PermissionAccounts)...))

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))

	// CORS preflight
	s.RegisterRouteHandler("OPTIONS "+RouteRoot, ChainMiddleware(s.PreflightHandler(), s.CorsMiddleware))
}

// PreflightHandler answers OPTIONS requests not already handled by CorsMiddleware
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// consoleMiddleware guards a console page: session, permission, then CSRF
func (s *Server) consoleMiddleware(p adminmodel.Permission) []func(http.HandlerFunc) http.HandlerFunc {
	return s.HTMLMiddleWare(s.RequireSession(), s.RequirePermission(p), s.CSRFMiddleware)
}

// RootRedirectHandler sends the bare root and any unknown path to the dashboard
func (s *Server) RootRedirectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectSuccess(w, r, RouteDashboard)
	}
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		if err := StreamFile(w, r, filePath); err != nil {
			log.Err(err).Str("path", filePath).Msg("static file not found")
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
