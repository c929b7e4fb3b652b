package repository

import (
	"context"

	"schedcore/internal/infra/db"
	"schedcore/internal/usecase/shared"
)

const userColumns = `id, username, name, email, time_zone, locale`

type UserRepository struct {
	db db.DBTX
}

func NewUserRepository(dbtx db.DBTX) *UserRepository {
	return &UserRepository{db: dbtx}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*shared.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*shared.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanOne(ctx, query, email)
}

func (r *UserRepository) scanOne(ctx context.Context, query string, arg any) (*shared.User, error) {
	var u shared.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Name, &u.Email, &u.TimeZone, &u.Locale,
	)
	if err != nil {
		return nil, classifyErr("failed to find user", err)
	}
	return &u, nil
}
