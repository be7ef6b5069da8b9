package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fleetsync/internal/auth/domain"
)

const DefaultTokenTTL = 5 * time.Hour

// tokenClaims mirrors the payload of issued tokens.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"id"`
	Email  string `json:"email"`
}

// JWTGate issues and verifies HS256 tokens signed with a shared secret.
type JWTGate struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTGate(secret string, ttl time.Duration) (*JWTGate, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTGate{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue implements domain.Issuer.
func (g *JWTGate) Issue(identity domain.Identity) (string, time.Time, error) {
	now := g.now()
	expiresAt := now.Add(g.ttl)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: identity.UserID,
		Email:  identity.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Authenticate implements domain.Gate.
func (g *JWTGate) Authenticate(ctx context.Context, credential string) (domain.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(credential, &parsed, func(token *jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	return domain.Identity{UserID: parsed.UserID, Email: parsed.Email}, nil
}
