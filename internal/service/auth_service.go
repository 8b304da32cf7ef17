package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pwannenmacher/campus-fest/internal/auth"
	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/repository"
	"github.com/pwannenmacher/campus-fest/pkg/validator"
)

// UserInput carries the fields of a new staff account
type UserInput struct {
	Email     string      `json:"email" validate:"required,email"`
	Password  string      `json:"password" validate:"required,min=8"`
	Name      string      `json:"name" validate:"required,notblank"`
	Role      models.Role `json:"role" validate:"required,oneof=super_admin event_admin coordinator registration program_reporting scoring"`
	CollegeID *string     `json:"college_id"`
}

// LoginResult is returned to a successfully authenticated user
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// AuthService handles staff accounts and login
type AuthService struct {
	users   repository.Users
	authSvc *auth.Service
}

// NewAuthService creates a new authentication service
func NewAuthService(users repository.Users, authSvc *auth.Service) *AuthService {
	return &AuthService{users: users, authSvc: authSvc}
}

// Login checks credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, validator.SanitizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.authSvc.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	token, expiresAt, err := s.authSvc.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("Failed to update last login", "user_id", user.ID, "error", err)
	}

	slog.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// CreateUser creates an active staff account
func (s *AuthService) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	in.Email = validator.SanitizeEmail(in.Email)
	in.Name = validator.SanitizeString(in.Name)
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	hash, err := s.authSvc.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         in.Role,
		CollegeID:    in.CollegeID,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, invalidInput("a user with email %s already exists", in.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("User created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// GetUser returns a user by id
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, notFound("user", id)
	}
	return user, nil
}

// ListUsers returns every staff account
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SeedAdmin creates the bootstrap super admin unless the email is already taken.
// It reports whether an account was created.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password, name string) (bool, error) {
	existing, err := s.users.GetByEmail(ctx, validator.SanitizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("failed to get user: %w", err)
	}
	if existing != nil {
		return false, nil
	}
	if name == "" {
		name = "Administrator"
	}
	if _, err := s.CreateUser(ctx, UserInput{Email: email, Password: password, Name: name, Role: models.RoleSuperAdmin}); err != nil {
		return false, err
	}
	return true, nil
}
