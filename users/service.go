// Package users serves the authenticated caller's own profile.
package users

import (
	"context"
	"errors"

	"github.com/user/notebook-go/apperror"
	"github.com/user/notebook-go/auth"
)

// UserService reads user profiles from the credential store.
type UserService struct {
	users auth.UserStore
}

// NewUserService creates a new UserService.
func NewUserService(users auth.UserStore) *UserService {
	return &UserService{users: users}
}

// GetUserProfile retrieves a user's profile by their ID. A token can outlive
// its user, so a missing user is a NotFoundError rather than an auth failure.
func (s *UserService) GetUserProfile(ctx context.Context, userID string) (*UserProfileResponse, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, apperror.NewNotFoundError("user not found", err)
		}
		return nil, apperror.NewDatabaseError("failed to get user profile", err)
	}

	return &UserProfileResponse{
		ID:        user.ID,
		Name:      user.Name,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}
