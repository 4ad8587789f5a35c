package http

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/neurocare/internal/storage"
)

func MountAssets(r chi.Router, bs storage.BlobStore) {
	// GET /assets/*   -> returns the blob at whatever follows /assets/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")        // everything after /assets/
		key = strings.TrimPrefix(key, "/") // normalize
		rc, err := bs.Get(key)
		if err != nil {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}
