package repository

import (
	"context"

	"github.com/oksasatya/foodgram/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// ListByIDs returns the users among ids that exist, in no particular order.
	ListByIDs(ctx context.Context, ids []string) ([]entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	List(ctx context.Context, limit, offset int) ([]entity.User, int, error)
}
