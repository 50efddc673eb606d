package store

import (
	"context"
	"errors"

	"booklibrary/internal/entity"
	"booklibrary/internal/usecase"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookPG is the Postgres implementation of usecase.BookRepository.
//
// Timestamps are stamped here, at the persistence boundary: every INSERT sets
// created_at and updated_at, every UPDATE refreshes updated_at, and
// created_at is never touched again after insert. The stamped values are
// scanned back via RETURNING so callers always see what was stored.
type BookPG struct {
	db *pgxpool.Pool
}

func NewBookPG(db *pgxpool.Pool) *BookPG {
	return &BookPG{db: db}
}

func (r *BookPG) ListByOwner(ctx context.Context, ownerID string) ([]entity.Book, error) {
	const query = `
	SELECT id, name, description, photo_path, file_path, is_borrowed, owner_id, version, created_at, updated_at
	FROM books
	WHERE owner_id = $1
	ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBooks(rows)
}

func (r *BookPG) GetByIDForOwner(ctx context.Context, id int64, ownerID string) (entity.Book, error) {
	const query = `
	SELECT id, name, description, photo_path, file_path, is_borrowed, owner_id, version, created_at, updated_at
	FROM books
	WHERE id = $1 AND owner_id = $2
	LIMIT 1
	`
	var b entity.Book
	err := r.db.QueryRow(ctx, query, id, ownerID).Scan(
		&b.ID, &b.Name, &b.Description, &b.PhotoPath, &b.FilePath,
		&b.IsBorrowed, &b.OwnerID, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Book{}, usecase.ErrNotFound
		}
		return entity.Book{}, err
	}
	return b, nil
}

// SearchByNameForOwner uses LIKE, so matching is case-sensitive per the
// Postgres default.
func (r *BookPG) SearchByNameForOwner(ctx context.Context, ownerID, query string, limit, offset int) ([]entity.Book, int, error) {
	const countSQL = `
	SELECT COUNT(*)
	FROM books
	WHERE owner_id = $1 AND name LIKE '%' || $2 || '%'
	`
	var total int
	if err := r.db.QueryRow(ctx, countSQL, ownerID, query).Scan(&total); err != nil {
		return nil, 0, err
	}

	const dataSQL = `
	SELECT id, name, description, photo_path, file_path, is_borrowed, owner_id, version, created_at, updated_at
	FROM books
	WHERE owner_id = $1 AND name LIKE '%' || $2 || '%'
	ORDER BY name ASC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, dataSQL, ownerID, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	books, err := scanBooks(rows)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *BookPG) CountByOwner(ctx context.Context, ownerID string) (available, borrowed int, err error) {
	const query = `
	SELECT COUNT(*) FILTER (WHERE NOT is_borrowed),
	       COUNT(*) FILTER (WHERE is_borrowed)
	FROM books
	WHERE owner_id = $1
	`
	err = r.db.QueryRow(ctx, query, ownerID).Scan(&available, &borrowed)
	return available, borrowed, err
}

func (r *BookPG) Add(ctx context.Context, book *entity.Book) error {
	const query = `
	INSERT INTO books (name, description, photo_path, file_path, is_borrowed, owner_id, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, 1, now() AT TIME ZONE 'utc', now() AT TIME ZONE 'utc')
	RETURNING id, version, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		book.Name, book.Description, book.PhotoPath, book.FilePath, book.IsBorrowed, book.OwnerID,
	).Scan(&book.ID, &book.Version, &book.CreatedAt, &book.UpdatedAt)
}

// Update applies the version check described in the port contract. When the
// guarded UPDATE hits no rows the existence of the row is re-checked
// (owner-scoped) to tell "gone" apart from "lost the race".
func (r *BookPG) Update(ctx context.Context, book *entity.Book) error {
	const query = `
	UPDATE books
	SET name = $1, description = $2, photo_path = $3, file_path = $4, is_borrowed = $5,
	    version = version + 1, updated_at = now() AT TIME ZONE 'utc'
	WHERE id = $6 AND owner_id = $7 AND version = $8
	RETURNING version, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		book.Name, book.Description, book.PhotoPath, book.FilePath, book.IsBorrowed,
		book.ID, book.OwnerID, book.Version,
	).Scan(&book.Version, &book.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var exists bool
	const existsSQL = `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1 AND owner_id = $2)`
	if err := r.db.QueryRow(ctx, existsSQL, book.ID, book.OwnerID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return usecase.ErrNotFound
	}
	return usecase.ErrConflict
}

func (r *BookPG) Remove(ctx context.Context, id int64, ownerID string) error {
	const query = `DELETE FROM books WHERE id = $1 AND owner_id = $2`
	tag, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return usecase.ErrNotFound
	}
	return nil
}

func scanBooks(rows pgx.Rows) ([]entity.Book, error) {
	var books []entity.Book
	for rows.Next() {
		var b entity.Book
		if err := rows.Scan(
			&b.ID, &b.Name, &b.Description, &b.PhotoPath, &b.FilePath,
			&b.IsBorrowed, &b.OwnerID, &b.Version, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}
