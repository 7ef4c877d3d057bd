package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok.ID == "" {
		t.Fatal("expected jti")
	}
	claims, err := ParseToken(testSecret, tok.Token, TokenAccess)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, _ := claims.UserID()
	if id != 42 || claims.ID != tok.ID {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	refresh, err := NewRefreshToken(testSecret, 7, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken(testSecret, refresh.Token, TokenAccess); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("refresh accepted as access: %v", err)
	}
	access, _ := NewAccessToken(testSecret, 7, time.Hour)
	if _, err := ParseToken(testSecret, access.Token, TokenRefresh); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("access accepted as refresh: %v", err)
	}
}

func TestParseTokenRejects(t *testing.T) {
	expired, _ := NewAccessToken(testSecret, 1, -time.Minute)
	other, _ := NewAccessToken("another-secret", 1, time.Minute)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{TokenType: TokenAccess}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, raw := range map[string]string{
		"expired":      expired.Token,
		"wrong secret": other.Token,
		"alg none":     none,
		"garbage":      "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseToken(testSecret, raw, TokenAccess); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestHashTokenID(t *testing.T) {
	h := HashTokenID("abc")
	if len(h) != 64 || h == "abc" || h != HashTokenID("abc") {
		t.Fatalf("unexpected hash %q", h)
	}
}
