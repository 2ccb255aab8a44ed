package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/user-accounts-api/internal/domain/entity"
)

var (
	// ErrUserNotFound is returned by Update when no row matches the user id.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when a write violates email uniqueness.
	ErrDuplicateEmail = errors.New("duplicate email")
)

// UserRepository defines the storage port consumed by the application layer.
// GetByID and GetByEmail return (nil, nil) when no user matches; errors are
// reserved for storage failures. GetAll returns users ordered by id ascending
// within an offset/limit window.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) (*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetAll(ctx context.Context, skip, limit int) ([]*entity.User, error)
	Update(ctx context.Context, u *entity.User) (*entity.User, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
