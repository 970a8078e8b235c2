package handler

import (
	"context"      // request scoped deadlines for store calls
	"database/sql" // sql.ErrNoRows from token validation
	"errors"       // errors.Is on store errors
	"net/http"     // HTTP status codes and primitives
	"strings"      // string manipulation utilities
	"time"         // refresh expiry

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/utils"
	"github.com/iliyamo/movie-review-api/internal/validation"
)

// UserStore is the account storage used by the auth endpoints.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id uint64) (*model.User, error)
}

// TokenStore persists refresh token hashes.  ConsumeRefresh revokes a token
// and returns its owner in one step; it returns sql.ErrNoRows for unknown,
// revoked or expired tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ConsumeRefresh(ctx context.Context, tokenHash string) (uint64, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
	if u == nil || t == nil {
		panic("nil store passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username" validate:"notblank,max=150"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	Refresh string `json:"refresh"`
}

type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}
type authResp struct {
	User           userPart  `json:"user"`
	Access         string    `json:"access"`
	AccessExpires  time.Time `json:"access_expires"`
	Refresh        string    `json:"refresh"`
	RefreshExpires time.Time `json:"refresh_expires"`
}

// issue creates an access/refresh pair for u and stores the refresh hash.
func (h *AuthHandler) issue(ctx context.Context, u *model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.IsAdmin, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:           userPart{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin},
		Access:         access.Token,
		AccessExpires:  access.Exp,
		Refresh:        refresh.Raw, // raw back to client, only the hash is stored
		RefreshExpires: refresh.Exp,
	}, nil
}

// Register creates a regular (non-admin) account and returns tokens
// immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := validation.Struct(req); err != nil {
		return respondError(c, err)
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return respondError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u := &model.User{Username: req.Username, Email: req.Email, PasswordHash: hash}
	if err := h.Users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, model.ErrDuplicateKey) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return respondError(c, err)
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return respondError(c, err)
	}
	logging.Ctx(ctx).Info().Uint64("user_id", u.ID).Msg("user registered")
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			utils.BurnPasswordCheck(req.Password)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return respondError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh consumes the presented token and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Refresh) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.Refresh))

	ctx, cancel := reqCtx(c)
	defer cancel()

	userID, err := h.Tokens.ConsumeRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return respondError(c, err)
	}
	u, err := h.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return respondError(c, err)
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the given refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Refresh) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.Refresh))

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Tokens.ConsumeRefresh(ctx, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me reports the caller's principal; anonymous callers get 401.
func (h *AuthHandler) Me(c echo.Context) error {
	p := middleware.Principal(c)
	if p.IsAnonymous() {
		return respondError(c, model.ErrUnauthorized)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":  p.UserID,
		"is_admin": p.IsAdmin,
	})
}

// EnsureAdmin creates the bootstrap admin account if username is set and the
// account does not exist yet.  An existing account is left untouched.
func EnsureAdmin(ctx context.Context, users UserStore, cfg config.Config) error {
	if cfg.AdminUsername == "" {
		return nil
	}
	if _, err := users.GetUserByUsername(ctx, cfg.AdminUsername); err == nil {
		return nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return err
	}
	hash, err := utils.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	u := &model.User{Username: cfg.AdminUsername, Email: cfg.AdminEmail, PasswordHash: hash, IsAdmin: true}
	if err := users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, model.ErrDuplicateKey) {
			return nil // another replica won the race
		}
		return err
	}
	logging.Info().Str("username", cfg.AdminUsername).Msg("admin account created")
	return nil
}
