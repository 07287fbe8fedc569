package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/mentions-console/adminapi"
	"github.com/jrsteele09/mentions-console/auth"
	"github.com/jrsteele09/mentions-console/internal/config"
	"github.com/jrsteele09/mentions-console/internal/secrets"
	"github.com/jrsteele09/mentions-console/querycache"
	"github.com/jrsteele09/mentions-console/server"
	"github.com/jrsteele09/mentions-console/server/loginsession"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const janitorInterval = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	api, err := adminapi.New(c.GetAPIOrigin(), adminapi.WithTimeout(c.GetAPITimeout()))
	if err != nil {
		return fmt.Errorf("adminapi.New: %w", err)
	}

	repo, closeRepo, err := openSessionRepo(c)
	if err != nil {
		return err
	}
	defer closeRepo()

	sessions, err := auth.NewSessionStore(repo, api, auth.WithMaxAge(c.GetMaxSessionAge()))
	if err != nil {
		return fmt.Errorf("auth.NewSessionStore: %w", err)
	}
	csrf := auth.NewCSRFStore()
	defer csrf.Close()
	cache := querycache.New(c.GetQueryCacheTTL())

	handler, err := server.New(c, sessions, csrf, cache)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go janitor(ctx, sessions, cache)

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(httpServer) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if c.GetEnv() == "DEV" {
		level = min(level, zerolog.DebugLevel)
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if c.GetEnv() == "DEV" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("app", c.GetAppName()).Logger()
}

// openSessionRepo uses SQLite when SESSION_DB is set, in-memory otherwise
func openSessionRepo(c config.Config) (loginsession.Repo, func(), error) {
	path := c.GetSessionDBPath()
	if path == "" {
		log.Info().Msg("Login sessions are kept in memory")
		return loginsession.NewInMemoryLoginSessionRepo(), func() {}, nil
	}

	secret := []byte(c.GetSessionSecret())
	if len(secret) == 0 {
		var err error
		if secret, err = secrets.RandomSecret(32); err != nil {
			return nil, nil, fmt.Errorf("secrets.RandomSecret: %w", err)
		}
		log.Warn().Msg("SESSION_SECRET is not set; stored sessions will not survive a restart")
	}
	cipher, err := secrets.NewCipher(secret)
	if err != nil {
		return nil, nil, fmt.Errorf("secrets.NewCipher: %w", err)
	}

	repo, err := loginsession.OpenSQLiteRepo(path, cipher)
	if err != nil {
		return nil, nil, fmt.Errorf("loginsession.OpenSQLiteRepo(%s): %w", path, err)
	}
	log.Info().Str("path", path).Msg("Login sessions are stored in SQLite")
	return repo, func() {
		if err := repo.Close(); err != nil {
			log.Err(err).Msg("failed to close session database")
		}
	}, nil
}

// janitor purges expired sessions and stale cache entries until ctx ends
func janitor(ctx context.Context, sessions *auth.SessionStore, cache *querycache.Cache) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired()
			if err != nil {
				log.Err(err).Msg("failed to delete expired sessions")
			}
			pruned := cache.Prune()
			if n > 0 || pruned > 0 {
				log.Debug().Int("sessions", n).Int("cache_entries", pruned).Msg("janitor")
			}
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
