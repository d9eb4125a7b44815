package auth

import (
	"fmt"
	"time"

	"room-sync/errors"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "room-sync"

// Claims is the payload of a listener token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenGuard signs and checks the bearer token of the current user.
type TokenGuard struct {
	key []byte
	now func() time.Time
}

func NewTokenGuard(secret string) *TokenGuard {
	return &TokenGuard{key: []byte(secret), now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (g *TokenGuard) WithClock(now func() time.Time) *TokenGuard {
	g.now = now
	return g
}

// GenerateToken creates a signed HS256 token for userID valid for ttl.
func (g *TokenGuard) GenerateToken(userID string, ttl time.Duration) (string, error) {
	now := g.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.key)
}

// ValidateToken checks signature and expiry. An expired token maps to ErrAuthExpired.
func (g *TokenGuard) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return g.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", errors.ErrAuthExpired, err)
		}
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
