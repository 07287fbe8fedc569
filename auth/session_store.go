// Package auth owns the console's login sessions: exchanging operator
// credentials for a bearer token, rehydrating sessions on each request and
// purging them on logout or when the API rejects the token.
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/mentions-console/adminapi"
	"github.com/jrsteele09/mentions-console/adminmodel"
	"github.com/jrsteele09/mentions-console/internal/errors"
	"github.com/jrsteele09/mentions-console/server/loginsession"
	"github.com/rs/zerolog/log"
)

const defaultMaxAge = 12 * time.Hour

// SessionEndFunc is called with the id of a session that has been removed
type SessionEndFunc func(sessionID string)

// SessionStore provides login, rehydration and logout on top of a
// loginsession.Repo. It is safe for concurrent use.
type SessionStore struct {
	repo    loginsession.Repo
	api     *adminapi.Client
	maxAge  time.Duration
	nowTime func() time.Time

	mu        sync.RWMutex
	listeners []SessionEndFunc
}

type SessionStoreOption func(*SessionStore)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionStoreOption {
	return func(s *SessionStore) {
		s.nowTime = nowFunc
	}
}

// WithMaxAge caps how long a session may live regardless of the token lifetime
func WithMaxAge(d time.Duration) SessionStoreOption {
	return func(s *SessionStore) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

func NewSessionStore(repo loginsession.Repo, api *adminapi.Client, options ...SessionStoreOption) (*SessionStore, error) {
	if repo == nil {
		return nil, errors.New("[NewSessionStore] session repo is required")
	}
	if api == nil {
		return nil, errors.New("[NewSessionStore] API client is required")
	}

	s := &SessionStore{
		repo:    repo,
		api:     api,
		maxAge:  defaultMaxAge,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// OnSessionEnd registers fn to run whenever a session is removed
func (s *SessionStore) OnSessionEnd(fn SessionEndFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Login exchanges credentials for a token and stores a new session.
// Nothing is stored when the exchange fails.
func (s *SessionStore) Login(ctx context.Context, username, password string) (loginsession.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return loginsession.Session{}, errors.ErrMissingCredentials
	}

	resp, err := s.api.Login(ctx, adminmodel.LoginRequest{Username: username, Password: password})
	if err != nil {
		return loginsession.Session{}, err
	}
	if resp.AccessToken == "" {
		return loginsession.Session{}, errors.Wrapf(errors.ErrInternal, "[Login] API returned an empty access token")
	}

	now := s.nowTime()
	session := loginsession.Session{
		ID:          uuid.NewString(),
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresAt:   sessionExpiry(now, *resp, s.maxAge),
		CreatedAt:   now,
	}
	if err := s.repo.Upsert(session.ID, session); err != nil {
		return loginsession.Session{}, errors.Wrapf(err, "[Login] failed to store session")
	}

	session, err = s.loadProfile(ctx, session)
	if err != nil {
		return loginsession.Session{}, err
	}

	log.Info().Str("username", username).Msg("operator logged in")
	return session, nil
}

// Get rehydrates the session with the given id. Expired sessions are
// removed and reported as ErrSessionExpired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (loginsession.Session, error) {
	if sessionID == "" {
		return loginsession.Session{}, errors.ErrSessionNotFound
	}

	session, err := s.repo.Get(sessionID)
	if err != nil {
		return loginsession.Session{}, err
	}
	if session.Expired(s.nowTime()) {
		s.end(sessionID)
		return loginsession.Session{}, errors.ErrSessionExpired
	}

	if session.User == nil {
		return s.loadProfile(ctx, session)
	}
	return session, nil
}

// Logout removes the session. Removing an unknown session is not an error.
func (s *SessionStore) Logout(sessionID string) {
	if sessionID == "" {
		return
	}
	s.end(sessionID)
}

// Client returns an API client bound to the session's token. A 401 from any
// call made through it purges the session.
func (s *SessionStore) Client(session loginsession.Session) *adminapi.Client {
	id := session.ID
	return s.api.Scoped(session.Token(), func() {
		s.end(id)
	})
}

// DeleteExpired removes every session past its expiry
func (s *SessionStore) DeleteExpired() (int, error) {
	return s.repo.DeleteExpired(s.nowTime())
}

// loadProfile fetches /api/auth/me for the session. Only a 401 is fatal, in
// which case the scoped client has already purged the session.
func (s *SessionStore) loadProfile(ctx context.Context, session loginsession.Session) (loginsession.Session, error) {
	user, err := s.Client(session).CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrUnauthorized) {
			return loginsession.Session{}, err
		}
		log.Warn().Err(err).Str("session", session.ID).Msg("unable to load operator profile")
		return session, nil
	}

	session.User = user
	if err := s.repo.Upsert(session.ID, session); err != nil {
		log.Err(err).Str("session", session.ID).Msg("unable to store operator profile")
	}
	return session, nil
}

func (s *SessionStore) end(sessionID string) {
	if err := s.repo.Delete(sessionID); err != nil {
		log.Err(err).Str("session", sessionID).Msg("failed to delete session")
	}

	s.mu.RLock()
	listeners := append([]SessionEndFunc(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(sessionID)
	}
}
