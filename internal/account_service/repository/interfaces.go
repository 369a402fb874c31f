package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/voxdesk/golang_services/internal/account_service/domain"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")
)

// UserRepository defines persistence for dashboard users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
