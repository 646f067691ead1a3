package http

import (
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lessonlab/practice-engine/internal/storage"
)

// UploadAssetHandler stores prompt media (multipart field "file") and
// returns the key exercise prompt_refs point at.
func UploadAssetHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			http.Error(w, "bad multipart form", http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file field", http.StatusBadRequest)
			return
		}
		defer f.Close()

		key := "assets/" + uuid.NewString() + "/" + hdr.Filename
		stored, err := bs.Put(key, f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"key": stored})
	}
}

// ServeAssetHandler streams a stored asset back; the wildcard path
// after /assets/ is the blob key.
func ServeAssetHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		if key == "" {
			http.Error(w, "missing key", http.StatusBadRequest)
			return
		}
		rc, err := bs.Get(key)
		if err != nil {
			if os.IsNotExist(err) {
				http.Error(w, "not found", http.StatusNotFound)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", storage.ContentType(key))
		_, _ = io.Copy(w, rc)
	}
}
