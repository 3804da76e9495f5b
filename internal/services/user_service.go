package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/funding-service/internal/models"
	"github.com/senyabanana/funding-service/internal/repository"

	"github.com/google/uuid"
)

// AccountDirectory возвращает роль пользователя по его ID.
type AccountDirectory interface {
	GetUserRole(ctx context.Context, userId string) (models.Role, error)
}

// UserService - справочник пользователей и их ролей.
type UserService struct {
	Repo repository.UserRepository
	Now  func() time.Time
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{Repo: repo, Now: time.Now}
}

// RegisterUser регистрирует нового пользователя.
func (s *UserService) RegisterUser(ctx context.Context, req models.UserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Role:      req.Role,
		CreatedAt: s.Now().UTC(),
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("username already registered: %w", models.ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

// GetUser возвращает пользователя по ID.
func (s *UserService) GetUser(ctx context.Context, userId string) (*models.User, error) {
	if err := uuid.Validate(userId); err != nil {
		return nil, models.ErrNotFound
	}
	return s.Repo.GetUserByID(ctx, userId)
}

// GetUserByUsername возвращает пользователя по username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, models.ErrNotFound
	}
	return s.Repo.GetUserByUsername(ctx, username)
}

// DeleteUser удаляет пользователя. Пользователя с операциями или предложениями удалить нельзя.
func (s *UserService) DeleteUser(ctx context.Context, userId string) error {
	if err := uuid.Validate(userId); err != nil {
		return models.ErrNotFound
	}
	deleted, err := s.Repo.DeleteUser(ctx, userId)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return fmt.Errorf("user has operations or bids: %w", models.ErrConflict)
		}
		return err
	}
	if !deleted {
		return models.ErrNotFound
	}
	return nil
}

// GetUserRole возвращает роль пользователя.
func (s *UserService) GetUserRole(ctx context.Context, userId string) (models.Role, error) {
	user, err := s.GetUser(ctx, userId)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}
