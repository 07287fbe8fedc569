package adminmodel

import (
	"time"

	"golang.org/x/oauth2"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /api/auth/login
type LoginResponse struct {
	// AccessToken is the bearer token sent as "Authorization: Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// TokenType is normally "bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the token lifetime in seconds, zero when unknown
	ExpiresIn int `json:"expires_in"`
}

// OAuth2Token converts the response into an oauth2 token. Expiry is only
// set when the API reported a lifetime.
func (r LoginResponse) OAuth2Token(now time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken: r.AccessToken,
		TokenType:   r.TokenType,
	}
	if r.ExpiresIn > 0 {
		tok.Expiry = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return tok
}
