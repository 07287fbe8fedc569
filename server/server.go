package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/mentions-console/auth"
	"github.com/jrsteele09/mentions-console/internal/config"
	"github.com/jrsteele09/mentions-console/querycache"
	"github.com/jrsteele09/mentions-console/server/ui"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	sessions  *auth.SessionStore
	csrf      *auth.CSRFStore
	cache     *querycache.Cache
	templates *pageTemplates
}

// New wires the console. Ending a session drops its cached queries and
// CSRF token.
func New(config config.Config, sessions *auth.SessionStore, csrf *auth.CSRFStore, cache *querycache.Cache) (*Server, error) {
	if sessions == nil || csrf == nil || cache == nil {
		return nil, fmt.Errorf("[Server New] session store, CSRF store and query cache are required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to load templates: %w", err)
	}

	s := &Server{
		env:       config.GetEnv(),
		mux:       http.NewServeMux(),
		config:    config,
		sessions:  sessions,
		csrf:      csrf,
		cache:     cache,
		templates: templates,
	}

	sessions.OnSessionEnd(cache.Drop)
	sessions.OnSessionEnd(csrf.Invalidate)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered route patterns
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			log.Debug().Msgf("[ %s ] %s", ui.Method(parts[0]), parts[1])
		} else {
			log.Debug().Msgf("[ %s ] %s", ui.Method(""), parts[0])
		}
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
