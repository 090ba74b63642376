package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quicklift/internal/domain/user"
	"quicklift/internal/ports"
)

// UserRepo persists user accounts using pgx and plain SQL.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) ports.UserRepository {
	return &UserRepo{pool: pool}
}

func (repo *UserRepo) Create(ctx context.Context, u *user.User) error {
	_, err := db(ctx, repo.pool).Exec(ctx, `
		INSERT INTO users (id, email, full_name, phone, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, u.ID, u.Email, u.FullName, u.Phone, u.Role.String(), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (repo *UserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	return repo.getBy(ctx, `WHERE id = $1`, id)
}

func (repo *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return repo.getBy(ctx, `WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (repo *UserRepo) getBy(ctx context.Context, where string, arg any) (*user.User, error) {
	var (
		u    user.User
		role string
	)
	err := db(ctx, repo.pool).QueryRow(ctx, `
		SELECT id, email, full_name, phone, role, created_at, updated_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.Role = user.Role(role)
	return &u, nil
}
