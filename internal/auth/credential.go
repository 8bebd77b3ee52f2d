package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The bearer credential is opaque to this client: it is acquired by
// the login flow and presented as-is. When it happens to be a JWT we
// can peek at the expiry claim (without verifying the signature) and
// refuse a dial that the server would reject anyway.

// TokenExpiry returns the expiry of a JWT credential, if the
// credential is a parseable JWT carrying an exp claim.
func TokenExpiry(credential string) (time.Time, bool) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(credential, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the credential is a JWT that has already
// expired. Opaque (non-JWT) credentials are never considered
// expired here; the server is the authority for those.
func Expired(credential string, now time.Time) bool {
	exp, ok := TokenExpiry(credential)
	if !ok {
		return false
	}
	return exp.Before(now)
}
