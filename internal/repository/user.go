package repository

import (
	"context"

	"github.com/ErlanBelekov/chirp/internal/domain"
)

type UpdateUserInput struct {
	ID    int64
	Name  *string // nil fields keep their current value
	Bio   *string
	Image *string
}

// UseCase depends on interface, not concrete implementation.
// This way we get: 1) can swap DB later without touching usecase 2) We can pass a mock implementation of interface in tests
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, input UpdateUserInput) (*domain.User, error)
	UpdateImage(ctx context.Context, userID int64, image string) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
