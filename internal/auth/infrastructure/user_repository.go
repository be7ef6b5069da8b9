package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fleetsync/internal/auth/domain"
	"fleetsync/internal/infrastructure/database/queries"
)

type UserRepository struct {
	readDB  *queries.Queries
	writeDB *queries.Queries
	now     func() time.Time
}

func NewUserRepository(readDB, writeDB *queries.Queries) *UserRepository {
	return &UserRepository{
		readDB:  readDB,
		writeDB: writeDB,
		now:     time.Now,
	}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.readDB.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return domain.User{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    time.Unix(0, row.CreatedAt).UTC(),
	}, nil
}

func (r *UserRepository) Insert(ctx context.Context, email, passwordHash string) (bool, error) {
	n, err := r.writeDB.InsertUser(ctx, queries.InsertUserParams{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    r.now().UnixNano(),
	})
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	return n == 1, nil
}
