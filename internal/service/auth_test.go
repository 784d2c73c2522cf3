package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artspot/gallery-api/internal/model"
	"github.com/artspot/gallery-api/internal/repository"
	"github.com/artspot/gallery-api/internal/utils"
)

// stubUserStore is an in-memory UserStore.
type stubUserStore struct {
	nextID uint64
	byID   map[uint64]model.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{byID: map[uint64]model.User{}}
}

func (s *stubUserStore) Create(_ context.Context, email, name string, passwordHash *string, role string) (uint64, error) {
	for _, u := range s.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	s.nextID++
	s.byID[s.nextID] = model.User{
		ID: s.nextID, Email: email, Name: name, PasswordHash: passwordHash, Role: role,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	return s.nextID, nil
}

func (s *stubUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *stubUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

// stubTokenStore is an in-memory TokenStore keyed by token hash.
type stubTokenStore struct {
	rows map[string]*model.RefreshToken
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{rows: map[string]*model.RefreshToken{}}
}

func (s *stubTokenStore) Store(_ context.Context, userID uint64, hash string, exp time.Time) error {
	s.rows[hash] = &model.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: exp}
	return nil
}

func (s *stubTokenStore) FindByHash(_ context.Context, hash string) (model.RefreshToken, error) {
	rt, ok := s.rows[hash]
	if !ok {
		return model.RefreshToken{}, sql.ErrNoRows
	}
	return *rt, nil
}

func (s *stubTokenStore) Rotate(_ context.Context, oldHash string, userID uint64, newHash string, exp time.Time) error {
	old, ok := s.rows[oldHash]
	if !ok || old.RevokedAt != nil {
		return repository.ErrStale
	}
	now := time.Now()
	old.RevokedAt = &now
	s.rows[newHash] = &model.RefreshToken{UserID: userID, TokenHash: newHash, ExpiresAt: exp}
	return nil
}

func (s *stubTokenStore) RevokeByHash(_ context.Context, hash string) error {
	if rt, ok := s.rows[hash]; ok && rt.RevokedAt == nil {
		now := time.Now()
		rt.RevokedAt = &now
	}
	return nil
}

func (s *stubTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	now := time.Now()
	for _, rt := range s.rows {
		if rt.UserID == userID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
		}
	}
	return nil
}

func (s *stubTokenStore) activeCount(userID uint64) int {
	n := 0
	for _, rt := range s.rows {
		if rt.UserID == userID && rt.Active(time.Now()) {
			n++
		}
	}
	return n
}

func newAuthService(t *testing.T) (*AuthService, *stubUserStore, *stubTokenStore) {
	t.Helper()
	users := newStubUserStore()
	tokens := newStubTokenStore()
	// bcrypt cost 4 keeps the suite fast
	return NewAuthService(users, tokens, "test-secret", 15, 7, 4), users, tokens
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	svc, _, tokens := newAuthService(t)

	res, err := svc.Register(context.Background(), "ada@example.com", "password123", "Ada")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, model.RoleUser, res.User.Role)
	assert.NotEmpty(t, res.Access.Token)
	assert.NotEmpty(t, res.Refresh.Raw)
	assert.Equal(t, 1, tokens.activeCount(res.User.ID))

	claims, err := utils.ParseAccessToken("test-secret", res.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), "ada@example.com", "password123", "Ada")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "ada@example.com", "password456", "Imposter")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), "ada@example.com", "password123", "Ada")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginPasswordlessAccount(t *testing.T) {
	svc, users, _ := newAuthService(t)
	uid, err := users.Create(context.Background(), "seed@example.com", "Seed", nil, model.RoleGalleryStaff)
	require.NoError(t, err)
	_ = uid

	_, err = svc.Login(context.Background(), "seed@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, _ := newAuthService(t)
	reg, err := svc.Register(context.Background(), "ada@example.com", "password123", "Ada")
	require.NoError(t, err)

	res, err := svc.Refresh(context.Background(), reg.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, reg.Refresh.Raw, res.Refresh.Raw)

	// rotated token no longer works
	_, err = svc.Refresh(context.Background(), reg.Refresh.Raw)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshReuseRevokesEverything(t *testing.T) {
	svc, _, tokens := newAuthService(t)
	reg, err := svc.Register(context.Background(), "ada@example.com", "password123", "Ada")
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), reg.Refresh.Raw)
	require.NoError(t, err)

	// an attacker replays the pre-rotation token
	_, err = svc.Refresh(context.Background(), reg.Refresh.Raw)
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	// the whole chain is dead, including the legitimately rotated token
	assert.Equal(t, 0, tokens.activeCount(reg.User.ID))
	_, err = svc.Refresh(context.Background(), rotated.Refresh.Raw)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _, tokens := newAuthService(t)
	reg, err := svc.Register(context.Background(), "ada@example.com", "password123", "Ada")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), reg.Refresh.Raw))
	assert.Equal(t, 0, tokens.activeCount(reg.User.ID))

	// again, and with a token that never existed
	require.NoError(t, svc.Logout(context.Background(), reg.Refresh.Raw))
	require.NoError(t, svc.Logout(context.Background(), "never-issued"))

	_, err = svc.Refresh(context.Background(), reg.Refresh.Raw)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

// failingRotateStore wraps a stubTokenStore and fails Rotate with a
// store-level error.
type failingRotateStore struct {
	*stubTokenStore
	rotateErr error
}

func (s *failingRotateStore) Rotate(context.Context, string, uint64, string, time.Time) error {
	return s.rotateErr
}

func TestRefreshSurfacesRotateStoreError(t *testing.T) {
	users := newStubUserStore()
	tokens := &failingRotateStore{
		stubTokenStore: newStubTokenStore(),
		rotateErr:      errors.New("driver: bad connection"),
	}
	svc := NewAuthService(users, tokens, "test-secret", 15, 7, 4)

	reg, err := svc.Register(context.Background(), "ada@example.com", "password123", "Ada")
	require.NoError(t, err)

	// A store failure is not an invalid token: the caller must see a 5xx,
	// not a 401 that tells the client to log in again.
	_, err = svc.Refresh(context.Background(), reg.Refresh.Raw)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRefresh)
	assert.ErrorIs(t, err, tokens.rotateErr)

	// A lost conditional update stays a 401.
	tokens.rotateErr = repository.ErrStale
	_, err = svc.Refresh(context.Background(), reg.Refresh.Raw)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestProfileUnknownUser(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Profile(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
