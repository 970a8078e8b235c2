package memstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// CreateUser stores a new account.  Usernames are unique.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.userByName[u.Username]; taken {
		return fmt.Errorf("%w: username %q already exists", model.ErrDuplicateKey, u.Username)
	}
	u.ID = s.next("users")
	u.CreatedAt = s.now()
	s.users[u.ID] = *u
	s.userByName[u.Username] = u.ID
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.userByName[strings.TrimSpace(username)]
	if !ok {
		return nil, fmt.Errorf("%w: user %q", model.ErrNotFound, username)
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

// StoreRefresh records a refresh token hash.
func (s *Store) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = model.RefreshToken{
		ID:        s.next("refresh_tokens"),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp,
	}
	return nil
}

// ConsumeRefresh revokes an active token and returns its owner, or
// sql.ErrNoRows like the MySQL repository.
func (s *Store) ConsumeRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	now := s.now()
	if !ok || t.RevokedAt != nil || !now.Before(t.ExpiresAt) {
		return 0, sql.ErrNoRows
	}
	t.RevokedAt = &now
	s.tokens[tokenHash] = t
	return t.UserID, nil
}
