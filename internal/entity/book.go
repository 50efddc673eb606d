package entity

import "time"

// Book is a record owned by exactly one user. PhotoPath and FilePath are
// forward-slash relative paths under the upload root, empty when no file is
// attached. Version backs row-level optimistic concurrency and is never
// exposed to clients.
type Book struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PhotoPath   string    `json:"photo_path"`
	FilePath    string    `json:"file_path"`
	IsBorrowed  bool      `json:"is_borrowed"`
	OwnerID     string    `json:"owner_id"`
	Version     int       `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
