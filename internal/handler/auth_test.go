package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artspot/gallery-api/internal/model"
	"github.com/artspot/gallery-api/internal/repository"
	"github.com/artspot/gallery-api/internal/service"
)

// memUserStore and memTokenStore are minimal in-memory stores for exercising
// the auth endpoints end to end without MySQL.
type memUserStore struct {
	nextID uint64
	users  map[uint64]model.User
}

func (s *memUserStore) Create(_ context.Context, email, name string, hash *string, role string) (uint64, error) {
	for _, u := range s.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	s.nextID++
	s.users[s.nextID] = model.User{ID: s.nextID, Email: email, Name: name, PasswordHash: hash, Role: role}
	return s.nextID, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *memUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

type memTokenStore struct {
	rows map[string]*model.RefreshToken
}

func (s *memTokenStore) Store(_ context.Context, userID uint64, hash string, exp time.Time) error {
	s.rows[hash] = &model.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: exp}
	return nil
}

func (s *memTokenStore) FindByHash(_ context.Context, hash string) (model.RefreshToken, error) {
	rt, ok := s.rows[hash]
	if !ok {
		return model.RefreshToken{}, sql.ErrNoRows
	}
	return *rt, nil
}

func (s *memTokenStore) Rotate(_ context.Context, oldHash string, userID uint64, newHash string, exp time.Time) error {
	old, ok := s.rows[oldHash]
	if !ok || old.RevokedAt != nil {
		return repository.ErrStale
	}
	now := time.Now()
	old.RevokedAt = &now
	s.rows[newHash] = &model.RefreshToken{UserID: userID, TokenHash: newHash, ExpiresAt: exp}
	return nil
}

func (s *memTokenStore) RevokeByHash(_ context.Context, hash string) error {
	if rt, ok := s.rows[hash]; ok && rt.RevokedAt == nil {
		now := time.Now()
		rt.RevokedAt = &now
	}
	return nil
}

func (s *memTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	now := time.Now()
	for _, rt := range s.rows {
		if rt.UserID == userID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
		}
	}
	return nil
}

func newAuthHandler() *AuthHandler {
	users := &memUserStore{users: map[uint64]model.User{}}
	tokens := &memTokenStore{rows: map[string]*model.RefreshToken{}}
	return NewAuthHandler(service.NewAuthService(users, tokens, "handler-test-secret", 15, 7, 4))
}

func TestRegisterAndLoginFlow(t *testing.T) {
	h := newAuthHandler()
	e := echo.New()

	req, rec := jsonRequest(http.MethodPost, "/v1/auth/register",
		`{"email":"Ada@Example.com","password":"password123","name":"Ada"}`)
	require.NoError(t, h.Register(e.NewContext(req, rec)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
		Refresh struct {
			Token string `json:"token"`
		} `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "ada@example.com", created.User.Email) // lower-cased
	assert.Equal(t, model.RoleUser, created.User.Role)
	assert.NotEmpty(t, created.Access.Token)
	assert.NotEmpty(t, created.Refresh.Token)

	req, rec = jsonRequest(http.MethodPost, "/v1/auth/login",
		`{"email":"ada@example.com","password":"password123"}`)
	require.NoError(t, h.Login(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"password":"password123","name":"Ada"}`},
		{"missing password", `{"email":"a@b.com","name":"Ada"}`},
		{"missing name", `{"email":"a@b.com","password":"password123"}`},
		{"blank name", `{"email":"a@b.com","password":"password123","name":"   "}`},
		{"bad email", `{"email":"nope","password":"password123","name":"Ada"}`},
		{"short password", `{"email":"a@b.com","password":"short","name":"Ada"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newAuthHandler()
			e := echo.New()

			req, rec := jsonRequest(http.MethodPost, "/v1/auth/register", tc.body)
			require.NoError(t, h.Register(e.NewContext(req, rec)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegisterDuplicateEmail409(t *testing.T) {
	h := newAuthHandler()
	e := echo.New()

	req, rec := jsonRequest(http.MethodPost, "/v1/auth/register",
		`{"email":"ada@example.com","password":"password123","name":"Ada"}`)
	require.NoError(t, h.Register(e.NewContext(req, rec)))
	require.Equal(t, http.StatusCreated, rec.Code)

	req, rec = jsonRequest(http.MethodPost, "/v1/auth/register",
		`{"email":"ada@example.com","password":"password456","name":"Ada"}`)
	require.NoError(t, h.Register(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginBadCredentials401(t *testing.T) {
	h := newAuthHandler()
	e := echo.New()

	req, rec := jsonRequest(http.MethodPost, "/v1/auth/login",
		`{"email":"nobody@example.com","password":"whatever1"}`)
	require.NoError(t, h.Login(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshEndpointRotates(t *testing.T) {
	h := newAuthHandler()
	e := echo.New()

	req, rec := jsonRequest(http.MethodPost, "/v1/auth/register",
		`{"email":"ada@example.com","password":"password123","name":"Ada"}`)
	require.NoError(t, h.Register(e.NewContext(req, rec)))

	var created struct {
		Refresh struct {
			Token string `json:"token"`
		} `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	req, rec = jsonRequest(http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token":"`+created.Refresh.Token+`"}`)
	require.NoError(t, h.Refresh(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	// the old token is now revoked
	req, rec = jsonRequest(http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token":"`+created.Refresh.Token+`"}`)
	require.NoError(t, h.Refresh(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshMissingToken400(t *testing.T) {
	h := newAuthHandler()
	e := echo.New()

	req, rec := jsonRequest(http.MethodPost, "/v1/auth/refresh", `{}`)
	require.NoError(t, h.Refresh(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
