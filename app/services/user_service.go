package services

import (
	"context"
	"errors"
	"fmt"

	"reddish/app/logger"
	"reddish/app/models"
	"reddish/app/repositories"
)

// UserService keeps local user documents in step with session profiles
type UserService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// EnsureUser returns the stored user for profile.ID, creating it on first sight
// and refreshing profile fields that changed since.
func (s *UserService) EnsureUser(ctx context.Context, profile models.User) (*models.User, error) {
	if err := requireUser(&profile); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(profile.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		user, err = s.create(profile)
	}
	if err != nil {
		return nil, err
	}

	if user.ApplyProfile(profile) {
		if err := s.userRepo.Update(user); err != nil {
			return nil, fmt.Errorf("failed to refresh user %s: %w", user.ID, err)
		}
	}
	return user, nil
}

func (s *UserService) create(profile models.User) (*models.User, error) {
	user := &models.User{
		ID:       profile.ID,
		Username: profile.Username,
		Email:    profile.Email,
		ImageURL: profile.ImageURL,
	}
	user.BeforeCreate()
	if err := user.Validate(); err != nil {
		return nil, validationFailed(err)
	}

	err := s.userRepo.Create(user)
	if errors.Is(err, repositories.ErrConflict) {
		// Another request created it first.
		return s.userRepo.GetByID(profile.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", profile.ID, err)
	}

	logger.Log.Info("user created", logger.WithUserID(user.ID))
	return user, nil
}

// GetUser returns a stored user
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, "User")
	}
	return user, nil
}
