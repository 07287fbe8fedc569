package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/mentions-console/adminmodel"
)

// tokenExpiry reads the exp claim of a JWT access token. The signature is
// not checked; the API remains the authority on validity.
func tokenExpiry(accessToken string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// sessionExpiry prefers the token's own exp claim, then expires_in, then
// maxAge. The result is never later than now+maxAge.
func sessionExpiry(now time.Time, resp adminmodel.LoginResponse, maxAge time.Duration) time.Time {
	var limit time.Time
	if maxAge > 0 {
		limit = now.Add(maxAge)
	}

	expiry, ok := tokenExpiry(resp.AccessToken)
	if !ok {
		expiry = resp.OAuth2Token(now).Expiry
	}
	if expiry.IsZero() || (!limit.IsZero() && expiry.After(limit)) {
		return limit
	}
	return expiry
}
