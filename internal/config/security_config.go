package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	sessionCookieVar = "SESSION_COOKIE_NAME"
	sessionMaxAgeVar = "SESSION_MAX_AGE"
	sessionDBVar     = "SESSION_DB"
	sessionSecretVar = "SESSION_SECRET"
)

type SecurityConfig interface {
	GetSessionCookieName() string
	GetMaxSessionAge() time.Duration
	GetSessionDBPath() string
	GetSessionSecret() string
}

type Security struct {
	v *viper.Viper
}

var _ SecurityConfig = Security{}

// GetSessionCookieName is the single browser-side key holding the login session
func (s Security) GetSessionCookieName() string {
	return s.v.GetString(sessionCookieVar)
}

func (s Security) GetMaxSessionAge() time.Duration {
	age := s.v.GetDuration(sessionMaxAgeVar)
	if age <= 0 {
		return 12 * time.Hour
	}
	return age
}

// GetSessionDBPath returns the SQLite file for durable sessions, empty for in-memory
func (s Security) GetSessionDBPath() string {
	return s.v.GetString(sessionDBVar)
}

func (s Security) GetSessionSecret() string {
	return s.v.GetString(sessionSecretVar)
}
