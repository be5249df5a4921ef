package api

import (
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/starford/chronogrid/internal/storage"
)

// FileHandler serves the original bytes of catalogued media files.
type FileHandler struct {
	libraries map[string]storage.Provider
}

// NewFileHandler creates a handler over the pane libraries.
func NewFileHandler(libraries map[string]storage.Provider) *FileHandler {
	return &FileHandler{libraries: libraries}
}

// ServeFile handles GET /api/panes/{pane}/files/*. Only media files inside
// the pane root are served; traversal attempts and other files get 404.
func (h *FileHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	store, ok := h.libraries[chi.URLParam(r, "pane")]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("unknown pane"))
		return
	}
	rel := wildcardPath(r)
	if rel == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	meta, err := store.Stat(rel)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	f, err := store.Open(meta.Path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, path.Base(meta.Path), meta.ModTime, f)
}
