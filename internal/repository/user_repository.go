package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/stadium-ops/internal/model"
)

// UserRepo mirrors the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with an already hashed password and fills ID.
// A taken username yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Username = strings.TrimSpace(u.Username)
	u.CreatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, created_at) VALUES (?,?,?,?)",
		u.Username, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return translateMySQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByUsername fetches a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.get(ctx, "SELECT id,username,email,password_hash,created_at FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.get(ctx, "SELECT id,username,email,password_hash,created_at FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) get(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
