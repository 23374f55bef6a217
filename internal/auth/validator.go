package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	apperrors "github.com/astrozeneka/review-dashboard-flex-living/pkg/errors"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/middleware"
)

// UserLookup resolves a user ID to an account. Implemented by
// service.UserService.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// NewTokenValidator bridges the JWT manager into the auth middleware. A
// syntactically valid token whose subject was deleted is rejected, so
// removing an account revokes its outstanding sessions.
func NewTokenValidator(jwt *JWTManager, users UserLookup) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		claims, err := jwt.Validate(token)
		if err != nil {
			return nil, err
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return nil, fmt.Errorf("malformed subject: %w", err)
		}

		if _, err := users.GetByID(context.Background(), userID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("user %s no longer exists", userID)
			}
			return nil, err
		}

		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
		}, nil
	}
}
