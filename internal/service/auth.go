package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront-api/internal/auth"
	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/repository"
)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name: strings.TrimSpace(req.Name), Email: email, Password: hashed, Role: model.RoleCustomer,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.authResponse(user)
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(user.Password, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.authResponse(user)
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *AuthService) authResponse(user *model.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Role, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &dto.AuthResponse{Token: token, User: ToUserResponse(user)}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ToUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID: user.ID, Name: user.Name, Email: user.Email,
		Role: user.Role, IsAdmin: user.IsAdmin(), CreatedAt: user.CreatedAt,
	}
}
