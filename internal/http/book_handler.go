package http

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"booklibrary/internal/entity"
	"booklibrary/internal/httpx"
	"booklibrary/internal/storage"
	"booklibrary/internal/usecase"
)

const searchPageSize = 10

type BookHandler struct {
	repo  usecase.BookRepository
	files *storage.Store
}

func NewBookHandler(repo usecase.BookRepository, files *storage.Store) *BookHandler {
	return &BookHandler{repo: repo, files: files}
}

type bookInput struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"required,max=500"`
}

// List handles GET /Books: all books of the owner, newest first, no
// pagination.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := httpx.UserIDFrom(r)
	if ownerID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	books, err := h.repo.ListByOwner(r.Context(), ownerID)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if books == nil {
		books = []entity.Book{}
	}

	httpx.JSONSuccess(w, "", books, nil)
}

// Summary handles GET /Books/Summary: how many of the owner's books are
// available versus loaned out.
func (h *BookHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ownerID := httpx.UserIDFrom(r)
	if ownerID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	available, borrowed, err := h.repo.CountByOwner(r.Context(), ownerID)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, "", map[string]int{
		"available": available,
		"borrowed":  borrowed,
	}, nil)
}

// Detail handles GET /Books/Details/{id}.
func (h *BookHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ownerID := httpx.UserIDFrom(r)
	if ownerID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	book, err := h.repo.GetByIDForOwner(r.Context(), id, ownerID)
	if err != nil {
		h.bookError(w, err)
		return
	}

	httpx.JSONSuccess(w, "", book, nil)
}

// Create handles POST /Books/Create. Multipart form: name, description,
// optional photoFile, optional bookFile. Validation failures are recovered
// locally and reported through the envelope; nothing is persisted and no
// file is written before all checks pass.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := httpx.UserIDFrom(r)
	if ownerID == "" {
		// The auth gate makes this structurally impossible; treat it as fatal.
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authenticated identity missing", nil)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid multipart form", nil)
		return
	}

	input := bookInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	if validationErrors := ValidateStruct(input); len(validationErrors) > 0 {
		httpx.JSONUserError(w, "Please correct the errors below.", validationErrors)
		return
	}

	photoFile, photoHeader, hasPhoto := formFile(r, "photoFile")
	if hasPhoto {
		defer photoFile.Close()
	}
	bookFile, bookHeader, hasBook := formFile(r, "bookFile")
	if hasBook {
		defer bookFile.Close()
	}

	if hasBook && !storage.AllowedBookExtension(bookHeader.Filename) {
		httpx.JSONUserError(w, "Only EPUB and PDF files are allowed.", nil)
		return
	}

	book := entity.Book{
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     ownerID,
	}

	if hasPhoto {
		relPath, err := h.files.Save(photoFile, photoHeader.Filename, "thumbnails")
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Could not store the cover photo", nil)
			return
		}
		book.PhotoPath = relPath
	}

	if hasBook {
		relPath, err := h.files.SavePreservingName(bookFile, bookHeader.Filename, "books")
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Could not store the book file", nil)
			return
		}
		book.FilePath = relPath
	}

	if err := h.repo.Add(r.Context(), &book); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccessCreated(w, fmt.Sprintf("Book %q added successfully!", book.Name), book)
}

// Edit handles POST /Books/Edit/{id}. The path id must match the submitted
// form id. The target is loaded owner-scoped, same as every other mutating
// action.
func (h *BookHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ownerID := httpx.UserIDFrom(r)
	if ownerID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid multipart form", nil)
		return
	}

	formID, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil || formID != id {
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	input := bookInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	if validationErrors := ValidateStruct(input); len(validationErrors) > 0 {
		httpx.JSONUserError(w, "Please correct the errors below.", validationErrors)
		return
	}

	book, err := h.repo.GetByIDForOwner(r.Context(), id, ownerID)
	if err != nil {
		h.bookError(w, err)
		return
	}

	photoFile, photoHeader, hasPhoto := formFile(r, "photoFile")
	if hasPhoto {
		defer photoFile.Close()
	}
	bookFile, bookHeader, hasBook := formFile(r, "bookFile")
	if hasBook {
		defer bookFile.Close()
	}

	if hasBook && !storage.AllowedBookExtension(bookHeader.Filename) {
		httpx.JSONUserError(w, "Only EPUB and PDF files are allowed.", nil)
		return
	}

	book.Name = input.Name
	book.Description = input.Description

	if hasPhoto {
		h.files.Delete(book.PhotoPath)
		relPath, err := h.files.Save(photoFile, photoHeader.Filename, "thumbnails")
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Could not store the cover photo", nil)
			return
		}
		book.PhotoPath = relPath
	}

	if hasBook {
		h.files.Delete(book.FilePath)
		relPath, err := h.files.SavePreservingName(bookFile, bookHeader.Filename, "books")
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Could not store the book file", nil)
			return
		}
		book.FilePath = relPath
	}

	if err := h.repo.Update(r.Context(), &book); err != nil {
		h.bookError(w, err)
		return
	}

	httpx.JSONSuccess(w, "Book updated successfully!", book, nil)
}

// Delete handles POST /Books/Delete/{id}. Associated files are removed
// best-effort before the row; a second delete on the same id yields 404.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := httpx.UserIDFrom(r)
	if ownerID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	book, err := h.repo.GetByIDForOwner(r.Context(), id, ownerID)
	if err != nil {
		h.bookError(w, err)
		return
	}

	h.files.Delete(book.PhotoPath)
	h.files.Delete(book.FilePath)

	if err := h.repo.Remove(r.Context(), id, ownerID); err != nil {
		h.bookError(w, err)
		return
	}

	httpx.JSONSuccess(w, fmt.Sprintf("Book %q deleted successfully!", book.Name), nil, nil)
}

// ToggleStatus handles POST /Books/ToggleStatus/{id}: flips the borrowed
// flag and refreshes updated_at.
func (h *BookHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	ownerID := httpx.UserIDFrom(r)
	if ownerID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	book, err := h.repo.GetByIDForOwner(r.Context(), id, ownerID)
	if err != nil {
		h.bookError(w, err)
		return
	}

	book.IsBorrowed = !book.IsBorrowed
	if err := h.repo.Update(r.Context(), &book); err != nil {
		h.bookError(w, err)
		return
	}

	status := "available"
	if book.IsBorrowed {
		status = "borrowed"
	}
	httpx.JSONSuccess(w, fmt.Sprintf("Book %q marked as %s!", book.Name, status), book, nil)
}

// Search handles GET /Books/Search?query=&page=. A blank query is the list
// view; the caller is told to go there. Page size is fixed at 10.
func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	ownerID := httpx.UserIDFrom(r)
	if ownerID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		httpx.JSONSuccess(w, "", nil, map[string]string{"redirect": "/Books"})
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * searchPageSize

	books, total, err := h.repo.SearchByNameForOwner(r.Context(), ownerID, query, searchPageSize, offset)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if books == nil {
		books = []entity.Book{}
	}

	httpx.JSONSuccess(w, "", books, map[string]interface{}{
		"query":       query,
		"page":        page,
		"page_size":   searchPageSize,
		"total":       total,
		"total_pages": (total + searchPageSize - 1) / searchPageSize,
	})
}

// GetContentURL handles GET /Books/GetEpubUrl/{id}: the public static URL of
// the stored content file, for client-side viewers.
func (h *BookHandler) GetContentURL(w http.ResponseWriter, r *http.Request) {
	ownerID := httpx.UserIDFrom(r)
	if ownerID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	book, err := h.repo.GetByIDForOwner(r.Context(), id, ownerID)
	if err != nil {
		h.bookError(w, err)
		return
	}
	if book.FilePath == "" {
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book has no content file", nil)
		return
	}

	httpx.JSONSuccess(w, "", map[string]string{"url": "/" + book.FilePath}, nil)
}

// Download handles GET /Book/Download/{id}: streams the stored content file
// with a display name derived from the book name plus the stored extension.
func (h *BookHandler) Download(w http.ResponseWriter, r *http.Request) {
	ownerID := httpx.UserIDFrom(r)
	if ownerID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	book, err := h.repo.GetByIDForOwner(r.Context(), id, ownerID)
	if err != nil {
		h.bookError(w, err)
		return
	}
	if book.FilePath == "" {
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book has no content file", nil)
		return
	}

	fullPath := h.files.Abs(book.FilePath)
	if _, err := os.Stat(fullPath); err != nil {
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book file is missing", nil)
		return
	}

	ext := strings.ToLower(filepath.Ext(fullPath))
	w.Header().Set("Content-Type", contentTypeFor(ext))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", book.Name+ext))
	http.ServeFile(w, r, fullPath)
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".epub":
		return "application/epub+zip"
	default:
		return "application/octet-stream"
	}
}

// bookError maps repository errors to responses. Not-found is a 404; a lost
// concurrency race whose row still exists is fatal, like any other server
// error.
func (h *BookHandler) bookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, usecase.ErrConflict):
		httpx.JSONError(w, http.StatusInternalServerError, "CONFLICT", "The book was modified concurrently", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

const maxUploadMemory = 32 << 20

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, bool) {
	file, header, err := r.FormFile(field)
	if err != nil || header.Size == 0 {
		if err == nil {
			file.Close()
		}
		return nil, nil, false
	}
	return file, header, true
}
