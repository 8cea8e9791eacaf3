package ports

import (
	"context"

	"github.com/squadron/asset-verification/internal/core/domain"
)

// UserRepository defines the persistence operations for user accounts.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create inserts user atomically with respect to its username; it returns
	// domain.ErrUserExists and leaves the existing record untouched on conflict.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}
