package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/auth"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	apperrors "github.com/astrozeneka/review-dashboard-flex-living/pkg/errors"
)

func newUserService(repo *mockUserRepo) *UserService {
	return NewUserService(repo, auth.NewJWTManager("test-secret", time.Hour))
}

func TestUserServiceRegister(t *testing.T) {
	repo := new(mockUserRepo)
	svc := newUserService(repo)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "ada@flexliving.test" && u.Name == "Ada Host" && u.PasswordHash != "secret1"
	})).Return(nil).Once()

	user, token, err := svc.Register(context.Background(), "Ada Host", "ada@flexliving.test", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
	repo.AssertExpectations(t)
}

func TestUserServiceRegisterShortPassword(t *testing.T) {
	repo := new(mockUserRepo)
	svc := newUserService(repo)

	_, _, err := svc.Register(context.Background(), "Ada Host", "ada@flexliving.test", "tiny")
	require.Error(t, err)
	assert.Equal(t, 422, apperrors.HTTPStatus(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserServiceRegisterDuplicateEmail(t *testing.T) {
	repo := new(mockUserRepo)
	svc := newUserService(repo)

	repo.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("user", "email", "ada@flexliving.test")).Once()

	_, _, err := svc.Register(context.Background(), "Ada Host", "ada@flexliving.test", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.Equal(t, 422, apperrors.HTTPStatus(err))
}

func TestUserServiceLogin(t *testing.T) {
	repo := new(mockUserRepo)
	svc := newUserService(repo)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &domain.User{
		ID:           uuid.New(),
		Name:         "Ada Host",
		Email:        "ada@flexliving.test",
		PasswordHash: string(hash),
	}
	repo.On("GetByEmail", mock.Anything, "ada@flexliving.test").Return(stored, nil).Once()

	user, token, err := svc.Login(context.Background(), "ada@flexliving.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, user.ID)
	assert.NotEmpty(t, token)
}

func TestUserServiceLoginWrongPassword(t *testing.T) {
	repo := new(mockUserRepo)
	svc := newUserService(repo)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.On("GetByEmail", mock.Anything, "ada@flexliving.test").
		Return(&domain.User{PasswordHash: string(hash)}, nil).Once()

	_, _, err = svc.Login(context.Background(), "ada@flexliving.test", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUserServiceLoginUnknownEmail(t *testing.T) {
	repo := new(mockUserRepo)
	svc := newUserService(repo)

	repo.On("GetByEmail", mock.Anything, "ghost@flexliving.test").
		Return(nil, apperrors.ErrNotFound).Once()

	_, _, err := svc.Login(context.Background(), "ghost@flexliving.test", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
