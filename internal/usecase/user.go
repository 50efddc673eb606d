package usecase

import (
	"booklibrary/internal/entity"
	"context"
	"errors"
)

var (
	ErrAlreadyExists = errors.New("user already exists")

	// ErrHasBooks is returned when deleting a user that still owns books.
	// Books are never cascade-deleted.
	ErrHasBooks = errors.New("user still owns books")
)

type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (entity.User, error)
	GetByID(ctx context.Context, id string) (entity.User, error)
	Delete(ctx context.Context, id string) error
}
