package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrStorage wraps any filesystem failure while saving an upload.
var ErrStorage = errors.New("storage error")

// allowedBookExtensions is the content-file allow-list. Cover photos are not
// restricted here; only the primary downloadable asset is.
var allowedBookExtensions = map[string]bool{
	".epub": true,
	".pdf":  true,
}

// AllowedBookExtension reports whether the file name carries an extension
// acceptable for a book content file. Callers must check this before
// SavePreservingName.
func AllowedBookExtension(name string) bool {
	return allowedBookExtensions[strings.ToLower(filepath.Ext(name))]
}

// Store writes uploads under <root>/uploads/<subfolder>/ and hands back
// forward-slash relative paths suitable for serving statically and for
// persisting on the book record.
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

// Save writes src to a collision-resistant uuid file name, keeping only the
// extension of the original name.
func (s *Store) Save(src io.Reader, originalName, subfolder string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	return s.write(src, uuid.New().String()+ext, subfolder)
}

// SavePreservingName keeps a sanitized version of the original file name,
// prefixed with a short random token to avoid collisions. Used for content
// files so downloads retain a recognizable name.
func (s *Store) SavePreservingName(src io.Reader, originalName, subfolder string) (string, error) {
	safeName := uuid.New().String()[:8] + "_" + filepath.Base(originalName)
	safeName = strings.NewReplacer(" ", "_", "(", "", ")", "").Replace(safeName)
	return s.write(src, safeName, subfolder)
}

func (s *Store) write(src io.Reader, name, subfolder string) (string, error) {
	dir := filepath.Join(s.root, "uploads", subfolder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: mkdir %s: %v", ErrStorage, dir, err)
	}

	fullPath := filepath.Join(dir, name)
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ErrStorage, fullPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrStorage, fullPath, err)
	}
	return path.Join("uploads", subfolder, name), nil
}

// Delete removes a previously stored file, best-effort. Failures are logged
// and swallowed so a missing file never aborts the enclosing request.
func (s *Store) Delete(relPath string) {
	if relPath == "" {
		return
	}
	fullPath := s.Abs(relPath)
	if err := os.Remove(fullPath); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("storage: delete %s: %v", relPath, err)
		}
		return
	}
	log.Printf("storage: deleted %s", relPath)
}

// Abs resolves a stored relative path to its location on disk.
func (s *Store) Abs(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}
