package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront-api/internal/auth"
	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/model"
)

func newTestAuthService() (*AuthService, *mockUserRepo, *auth.TokenManager) {
	repo := newMockUserRepo()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(repo, tokens), repo, tokens
}

func TestAuthService_Register(t *testing.T) {
	svc, repo, tokens := newTestAuthService()

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Jane Doe", Email: "  Jane@Example.com ", Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "jane@example.com", resp.User.Email)
	assert.Equal(t, model.RoleCustomer, resp.User.Role)
	assert.False(t, resp.User.IsAdmin)

	stored := repo.users[resp.User.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "password123", stored.Password)

	claims, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	subject, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, subject)
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, _, _ := newTestAuthService()
	req := dto.RegisterRequest{Name: "A", Email: "dup@example.com", Password: "password123"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	req.Email = "DUP@example.com"
	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _ := newTestAuthService()
	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Login", Email: "login@example.com", Password: "password123",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "login@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "login@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Profile(t *testing.T) {
	svc, _, _ := newTestAuthService()
	reg, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Profile", Email: "profile@example.com", Password: "password123",
	})
	require.NoError(t, err)

	profile, err := svc.Profile(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Profile", profile.Name)

	_, err = svc.Profile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_SetAdminBumpsTokenVersion(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo)
	user := &model.User{Name: "U", Email: "u@example.com", Role: model.RoleCustomer}
	require.NoError(t, repo.Create(context.Background(), user))

	updated, err := svc.SetAdmin(context.Background(), user.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin())
	assert.Equal(t, 1, updated.TokenVersion)

	updated, err = svc.SetAdmin(context.Background(), user.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, updated.Role)
	assert.Equal(t, 2, updated.TokenVersion)

	_, err = svc.SetAdmin(context.Background(), uuid.New(), true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_GetListDelete(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo)
	user := &model.User{Name: "U", Email: "u@example.com", Role: model.RoleCustomer}
	require.NoError(t, repo.Create(context.Background(), user))

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)

	got, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", got.Email)

	require.NoError(t, svc.Delete(context.Background(), user.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), user.ID), ErrUserNotFound)
	_, err = svc.Get(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
