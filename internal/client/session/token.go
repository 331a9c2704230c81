package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiringSoon decodes token as a JWT without verifying its signature
// (verification is the server's job) and reports whether its exp claim falls
// within skew from now. Opaque tokens and tokens without exp report false:
// expiry is then only discovered through a 401.
func tokenExpiringSoon(token string, skew time.Duration) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < skew
}
