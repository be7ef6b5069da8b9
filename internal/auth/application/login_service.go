package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fleetsync/internal/auth/domain"
	sharedlogger "fleetsync/internal/shared/logger"
	"fleetsync/internal/shared/validation"
)

// Token is a freshly issued bearer credential.
type Token struct {
	Token     string
	ExpiresAt time.Time
}

type LoginService struct {
	logger sharedlogger.Logger
	users  domain.UserStore
	issuer domain.Issuer
}

func NewLoginService(logger sharedlogger.Logger, users domain.UserStore, issuer domain.Issuer) *LoginService {
	return &LoginService{logger: logger, users: users, issuer: issuer}
}

// Login checks the password against the stored bcrypt hash. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (s *LoginService) Login(ctx context.Context, email, password string) (Token, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Info("Login rejected", "email", email, "reason", "unknown user")
		return Token{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Token{}, fmt.Errorf("login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("Login rejected", "email", email, "reason", "password mismatch")
		return Token{}, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.issuer.Issue(domain.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return Token{}, fmt.Errorf("login: %w", err)
	}

	s.logger.Info("Login succeeded", "user_id", user.ID)
	return Token{Token: token, ExpiresAt: expiresAt}, nil
}

// CreateUser stores a new account with a bcrypt hash of password. It reports
// false without error when the email already exists.
func (s *LoginService) CreateUser(ctx context.Context, email, password string) (bool, error) {
	email = strings.TrimSpace(email)

	problems := make(map[string]string)
	if email == "" {
		problems["email"] = "must not be empty"
	}
	if password == "" {
		problems["password"] = "must not be empty"
	}
	if len(problems) > 0 {
		return false, &validation.ValidationError{Path: "user", Problems: problems}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Insert(ctx, email, string(hash))
	if err != nil {
		return false, err
	}
	if created {
		s.logger.Info("User created", "email", email)
	} else {
		s.logger.Debug("User already exists", "email", email)
	}
	return created, nil
}
