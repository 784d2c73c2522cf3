// Package service holds the domain logic sitting between HTTP handlers and
// repositories. Services depend on narrow store interfaces so tests can
// substitute in-memory fakes for the SQL-backed repositories.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artspot/gallery-api/internal/model"
	"github.com/artspot/gallery-api/internal/repository"
	"github.com/artspot/gallery-api/internal/utils"
)

// UserStore is the slice of UserRepo the auth service needs.
type UserStore interface {
	Create(ctx context.Context, email, name string, passwordHash *string, role string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is the slice of TokenRepo the auth service needs.
type TokenStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	Rotate(ctx context.Context, oldHash string, userID uint64, newHash string, exp time.Time) error
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// Auth failure sentinels. Handlers map these onto 409/401/404. The login and
// refresh errors are deliberately generic: the same message covers every
// failure mode so responses cannot be used for account enumeration.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrUserNotFound       = errors.New("user not found")
)

// SafeUser is the user projection returned to clients; it never carries the
// password hash.
type SafeUser struct {
	ID            uint64    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

func safeUser(u model.User) SafeUser {
	return SafeUser{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// AuthResult bundles the user projection with a fresh token pair.
type AuthResult struct {
	User    SafeUser
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// AuthService implements registration, login and refresh-token rotation with
// reuse detection.
type AuthService struct {
	users  UserStore
	tokens TokenStore

	secret         string
	accessTTLMin   int
	refreshTTLDays int
	bcryptCost     int
}

func NewAuthService(users UserStore, tokens TokenStore, secret string, accessTTLMin, refreshTTLDays, bcryptCost int) *AuthService {
	return &AuthService{
		users:          users,
		tokens:         tokens,
		secret:         secret,
		accessTTLMin:   accessTTLMin,
		refreshTTLDays: refreshTTLDays,
		bcryptCost:     bcryptCost,
	}
}

// Register creates a USER account and issues its first token pair. The
// password is bcrypt-hashed before it reaches the store; duplicate emails
// surface as ErrEmailTaken.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (AuthResult, error) {
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return AuthResult{}, err
	}
	uid, err := s.users.Create(ctx, email, name, &hash, model.RoleUser)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, err
	}
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return AuthResult{}, err
	}
	return s.issuePair(ctx, u)
}

// Login verifies credentials and issues a new token pair. Unknown email,
// password-less account and bad password all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if u.PasswordHash == nil || !utils.VerifyPassword(*u.PasswordHash, password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.issuePair(ctx, u)
}

// Refresh exchanges a valid refresh token for a new pair, rotating the
// presented token. Presenting a revoked token is treated as evidence of
// theft: every token belonging to that user is revoked (global logout)
// before the Unauthorized error is returned.
func (s *AuthService) Refresh(ctx context.Context, raw string) (AuthResult, error) {
	hash := utils.HashRefreshRaw(raw)
	stored, err := s.tokens.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuthResult{}, ErrInvalidRefresh
		}
		return AuthResult{}, err
	}
	if stored.RevokedAt != nil {
		// Reuse after rotation: the value was exfiltrated. Kill the chain.
		if err := s.tokens.RevokeAllForUser(ctx, stored.UserID); err != nil {
			return AuthResult{}, err
		}
		return AuthResult{}, ErrInvalidRefresh
	}
	if !stored.Active(time.Now().UTC()) {
		return AuthResult{}, ErrInvalidRefresh
	}

	u, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return AuthResult{}, err
	}

	newRefresh, err := utils.NewRefreshToken(s.refreshTTLDays)
	if err != nil {
		return AuthResult{}, err
	}
	// Revoke-old and insert-new happen in one transaction; a concurrent
	// rotation of the same token loses the conditional update and gets no
	// new token (fail closed).
	if err := s.tokens.Rotate(ctx, hash, stored.UserID, utils.HashRefreshRaw(newRefresh.Raw), newRefresh.Exp); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return AuthResult{}, ErrInvalidRefresh
		}
		return AuthResult{}, err
	}
	access, err := utils.NewAccessToken(s.secret, u.ID, u.Role, s.accessTTLMin)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: safeUser(u), Access: access, Refresh: newRefresh}, nil
}

// Logout revokes the presented refresh token. Unknown tokens are a no-op so
// the operation is idempotent.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	return s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
}

// Profile returns the safe projection of the user behind a verified access
// token subject.
func (s *AuthService) Profile(ctx context.Context, userID uint64) (SafeUser, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SafeUser{}, ErrUserNotFound
		}
		return SafeUser{}, err
	}
	return safeUser(u), nil
}

func (s *AuthService) issuePair(ctx context.Context, u model.User) (AuthResult, error) {
	access, err := utils.NewAccessToken(s.secret, u.ID, u.Role, s.accessTTLMin)
	if err != nil {
		return AuthResult{}, err
	}
	refresh, err := utils.NewRefreshToken(s.refreshTTLDays)
	if err != nil {
		return AuthResult{}, err
	}
	if err := s.tokens.Store(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: safeUser(u), Access: access, Refresh: refresh}, nil
}
