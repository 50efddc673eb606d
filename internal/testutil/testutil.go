package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	"booklibrary/internal/auth"
	"booklibrary/internal/entity"
	"booklibrary/internal/httpx"
)

// TestOwnerID is the owner used by authenticated requests in tests.
const TestOwnerID = "owner-1"

// TestBook is a baseline fixture; copy and mutate per test.
var TestBook = entity.Book{
	ID:          7,
	Name:        "Dune",
	Description: "Sci-fi",
	IsBorrowed:  false,
	OwnerID:     TestOwnerID,
	Version:     1,
	CreatedAt:   time.Now().UTC(),
	UpdatedAt:   time.Now().UTC(),
}

// GenerateTestToken mints a short-lived JWT for middleware tests.
func GenerateTestToken(secret, userID string) string {
	token, _ := auth.GenerateToken(secret, userID, time.Hour)
	return token
}

// NewRequest creates a JSON request, optionally with a body.
func NewRequest(method, path string, body interface{}) *http.Request {
	var r *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// AsOwner attaches an authenticated user ID to the request context, the way
// the auth middleware would.
func AsOwner(r *http.Request, ownerID string) *http.Request {
	return r.WithContext(httpx.ContextWithUser(r.Context(), ownerID))
}

// UploadFile is a file part for NewMultipartRequest.
type UploadFile struct {
	FieldName string
	FileName  string
	Content   []byte
}

// NewMultipartRequest builds a multipart form request from plain fields and
// file parts, matching what the create/edit handlers expect.
func NewMultipartRequest(method, path string, fields map[string]string, files ...UploadFile) *http.Request {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		_ = writer.WriteField(key, value)
	}
	for _, f := range files {
		part, _ := writer.CreateFormFile(f.FieldName, f.FileName)
		_, _ = part.Write(f.Content)
	}
	_ = writer.Close()

	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", writer.FormDataContentType())
	return r
}

// RecordResponse is a decoded HTTP response for assertions.
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// RecordHTTPResponse drains the recorder and decodes the JSON body.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}
