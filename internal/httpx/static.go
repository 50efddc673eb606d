package httpx

import (
	"net/http"
	"path/filepath"
)

// UploadsFileServer serves the public uploads tree under /uploads/ with
// permissive cross-origin headers and a 1-hour cache directive, so embedded
// readers on other origins can fetch cover photos and EPUB content directly.
func UploadsFileServer(root string) http.Handler {
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(filepath.Join(root, "uploads"))))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		fileServer.ServeHTTP(w, r)
	})
}
