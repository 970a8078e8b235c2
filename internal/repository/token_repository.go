package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo stores refresh tokens by SHA-256 hash; raw tokens never reach
// the database.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a newly issued refresh token.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)",
		userID, tokenHash, exp.UTC())
	return translate(ctx, err, "refresh token")
}

// ConsumeRefresh revokes an active token and returns its owner.  The row is
// locked so two concurrent rotations of one token cannot both succeed.
// Unknown, revoked and expired tokens yield sql.ErrNoRows.
func (r *TokenRepo) ConsumeRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var userID uint64
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var (
			id  uint64
			exp time.Time
		)
		err := tx.QueryRowContext(ctx, `
			SELECT id, user_id, expires_at FROM refresh_tokens
			WHERE token_hash = ? AND revoked_at IS NULL
			FOR UPDATE`, tokenHash).Scan(&id, &userID, &exp)
		if err != nil {
			return err
		}
		if !time.Now().UTC().Before(exp) {
			return sql.ErrNoRows
		}
		_, err = tx.ExecContext(ctx, "UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE id = ?", id)
		return err
	})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, translate(ctx, err, "refresh token")
		}
		return 0, err
	}
	return userID, nil
}
