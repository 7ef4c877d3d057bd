package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims are the claims carried by both token kinds. TokenType keeps a
// refresh token from being accepted as a bearer credential and vice versa.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// IssuedToken is a signed JWT with its id and expiry.
type IssuedToken struct {
	Token string
	ID    string
	Exp   time.Time
}

// NewAccessToken signs a short-lived HS256 access token for userID.
func NewAccessToken(secret string, userID uint64, ttl time.Duration) (IssuedToken, error) {
	return newToken(secret, TokenAccess, userID, ttl)
}

// NewRefreshToken signs a long-lived HS256 refresh token. Only the hash of
// its jti is persisted.
func NewRefreshToken(secret string, userID uint64, ttl time.Duration) (IssuedToken, error) {
	return newToken(secret, TokenRefresh, userID, ttl)
}

func newToken(secret, typ string, userID uint64, ttl time.Duration) (IssuedToken, error) {
	iat := time.Now().UTC()
	exp := iat.Add(ttl)
	jti := uuid.NewString()
	claims := Claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return IssuedToken{Token: signed, ID: jti, Exp: exp}, nil
}

// ParseToken verifies signature and expiry of raw and checks that it is of
// the wanted type. Only HMAC signatures are accepted.
func ParseToken(secret, raw, wantType string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// HashTokenID returns the SHA-256 hex digest stored in place of a refresh
// token id.
func HashTokenID(jti string) string {
	sum := sha256.Sum256([]byte(jti))
	return hex.EncodeToString(sum[:])
}
