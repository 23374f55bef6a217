package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/auth"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/repository"
	apperrors "github.com/astrozeneka/review-dashboard-flex-living/pkg/errors"
)

const (
	bcryptCost        = 12
	minPasswordLength = 6
)

// UserService handles host account registration and authentication.
type UserService struct {
	users repository.UserRepository
	jwt   *auth.JWTManager
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, jwt *auth.JWTManager) *UserService {
	return &UserService{users: users, jwt: jwt}
}

// Register creates a host account and returns it with a fresh session
// token. Duplicate emails and short passwords are rejected as unprocessable
// rather than invalid input, matching how the dashboard frontend surfaces
// signup failures.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	if len(password) < minPasswordLength {
		return nil, "", apperrors.Unprocessable("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", apperrors.Internal(err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.jwt.Generate(user.ID.String(), user.Email)
	if err != nil {
		return nil, "", apperrors.Internal(err)
	}

	return user, token, nil
}

// Login verifies credentials and returns the user with a session token. A
// wrong email and a wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", apperrors.Unauthorized("invalid credentials")
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.Unauthorized("invalid credentials")
	}

	token, err := s.jwt.Generate(user.ID.String(), user.Email)
	if err != nil {
		return nil, "", apperrors.Internal(err)
	}

	return user, token, nil
}

// GetByID loads a user by ID. Used to confirm that the subject of a valid
// token still exists.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
