package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// Identity is the caller a bearer credential resolved to.
type Identity struct {
	UserID int64
	Email  string
}

// User is a stored login account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Gate resolves a bearer credential to an identity. Any failure is reported
// as ErrUnauthorized.
type Gate interface {
	Authenticate(ctx context.Context, credential string) (Identity, error)
}

// Issuer mints bearer credentials.
type Issuer interface {
	Issue(identity Identity) (token string, expiresAt time.Time, err error)
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	// Insert reports false when the email is already taken.
	Insert(ctx context.Context, email, passwordHash string) (bool, error)
}

type identityKey struct{}

// WithIdentity attaches the authenticated caller to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller attached by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
