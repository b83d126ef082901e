// internal/services/user_service.go
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/prompteconomy/backend/internal/models"
	"github.com/prompteconomy/backend/internal/repository"
	"github.com/prompteconomy/backend/internal/utils"
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
}

func (s *UserService) PublicProfile(ctx context.Context, id uuid.UUID) (*models.PublicProfile, error) {
	user, err := s.users.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("user not found")
		}
		return nil, InternalError("look up user", err)
	}

	profile := user.Public()
	return &profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, ValidationError("invalid profile update")
	}

	user, err := s.users.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("user not found")
		}
		return nil, InternalError("look up user", err)
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, InternalError("update profile", err)
	}

	return user, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*models.User, error) {
	user, err := s.users.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("user not found")
		}
		return nil, InternalError("look up user", err)
	}

	user.AvatarURL = avatarURL
	if err := s.users.Update(ctx, user); err != nil {
		return nil, InternalError("update avatar", err)
	}

	return user, nil
}
