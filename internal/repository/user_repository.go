package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/event-attendance/internal/model"
)

// UserRepo is the read-only user directory.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	const op = "repository.UserRepo.GetByID"
	var (
		u    model.User
		name sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,display_name FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	u.DisplayName = name.String
	return u, nil
}

// Exists reports whether a user with the id is present.
func (r *UserRepo) Exists(ctx context.Context, id string) (bool, error) {
	const op = "repository.UserRepo.Exists"
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}
