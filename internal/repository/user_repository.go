package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/movie-review-api/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, email, password_hash, is_admin, created_at"

// CreateUser inserts u and populates its id.  A taken username is
// model.ErrDuplicateKey.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, is_admin) VALUES (?,?,?,?)",
		u.Username, u.Email, u.PasswordHash, u.IsAdmin)
	if err != nil {
		return translate(ctx, err, fmt.Sprintf("username %q", u.Username))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetUserByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = *created
	return nil
}

// GetUserByUsername fetches a user by trimmed username.
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	username = strings.TrimSpace(username)
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		return nil, translate(ctx, err, fmt.Sprintf("user %q", username))
	}
	return &u, nil
}

// GetUserByID fetches a user by id.
func (r *UserRepo) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		return nil, translate(ctx, err, fmt.Sprintf("user %d", id))
	}
	return &u, nil
}
