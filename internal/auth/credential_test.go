package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "17",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, ok := TokenExpiry(signedToken(t, exp))
	if !ok {
		t.Fatalf("expected expiry from JWT credential")
	}
	if !got.Equal(exp) {
		t.Errorf("TokenExpiry = %v, want %v", got, exp)
	}
}

func TestTokenExpiryOpaque(t *testing.T) {
	if _, ok := TokenExpiry("just-an-opaque-session-token"); ok {
		t.Errorf("opaque credential should not yield an expiry")
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		credential string
		want       bool
	}{
		{"valid jwt", signedToken(t, now.Add(time.Hour)), false},
		{"expired jwt", signedToken(t, now.Add(-time.Hour)), true},
		{"opaque token", "opaque-credential", false},
		{"empty token", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expired(tt.credential, now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}
