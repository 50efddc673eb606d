package usecase

import (
	"booklibrary/internal/entity"
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a record does not exist or is not owned
	// by the caller. Ownership mismatches are indistinguishable from
	// missing rows on purpose.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an update lost an optimistic
	// concurrency race but the row still exists.
	ErrConflict = errors.New("concurrent modification")
)

// BookRepository is the owner-scoped persistence contract for books.
// Every query is pre-filtered by owner id in SQL, never after retrieval.
type BookRepository interface {
	// ListByOwner returns all books of one owner, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]entity.Book, error)

	GetByIDForOwner(ctx context.Context, id int64, ownerID string) (entity.Book, error)

	// SearchByNameForOwner does a substring match on name, ordered by name
	// ascending, with offset/limit pagination. Returns the page and the
	// total match count.
	SearchByNameForOwner(ctx context.Context, ownerID, query string, limit, offset int) ([]entity.Book, int, error)

	// CountByOwner returns how many of the owner's books are available
	// and how many are flagged borrowed.
	CountByOwner(ctx context.Context, ownerID string) (available, borrowed int, err error)

	// Add inserts the book and fills in ID, Version and both timestamps.
	Add(ctx context.Context, book *entity.Book) error

	// Update persists name, description, file paths and the borrowed flag.
	// It fails with ErrNotFound when the row is gone (or owned by someone
	// else) and ErrConflict when the stored version no longer matches.
	Update(ctx context.Context, book *entity.Book) error

	// Remove deletes the book, owner-scoped. ErrNotFound when nothing
	// matched.
	Remove(ctx context.Context, id int64, ownerID string) error
}
