package loginsession

import (
	"time"

	"github.com/jrsteele09/mentions-console/adminmodel"
	"golang.org/x/oauth2"
)

type Session struct {
	ID string

	// Bearer token issued by the API. A stored session always has one.
	AccessToken string
	TokenType   string

	// Operator profile, nil until /api/auth/me has been fetched
	User *adminmodel.Account

	// Session management
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Token returns the session's bearer token in oauth2 form
func (s Session) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: s.AccessToken,
		TokenType:   s.TokenType,
		Expiry:      s.ExpiresAt,
	}
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type Repo interface {
	Upsert(sessionID string, session Session) error
	Get(sessionID string) (Session, error)
	Delete(sessionID string) error
	DeleteExpired(now time.Time) (int, error)
}
