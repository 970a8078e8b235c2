package model

import "time"

// User represents an account as stored in the `users` table.  Accounts are
// managed by the authentication endpoints; the review and rating core only
// sees them through a Principal and the joined username.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name, shown as the author of reviews and ratings.
//  Email        – contact address.
//  PasswordHash – bcrypt hashed password.
//  IsAdmin      – grants catalog write access.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	IsAdmin      bool      // users.is_admin
	CreatedAt    time.Time // users.created_at
}

// Principal converts the account into the identity used by the policy.
func (u *User) Principal() Principal { return NewPrincipal(u.ID, u.IsAdmin) }

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (nil if still active).
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
}
