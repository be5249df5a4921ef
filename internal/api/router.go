package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/chronogrid/internal/gallery"
	"github.com/starford/chronogrid/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// libraries maps pane names to their media stores for raw file access.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *gallery.Service, libraries map[string]storage.Provider, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	fh := NewFileHandler(libraries)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/panes", h.Summaries)
	r.Route("/panes/{pane}", func(r chi.Router) {
		// Calendar and layout.
		r.Get("/calendar", h.Calendar)
		r.Get("/items", h.Items)
		r.Put("/columns", h.SetColumns)

		// Navigation.
		r.Get("/position", h.Position)
		r.Post("/scroll", h.Scroll)
		r.Post("/jump", h.Jump)
		r.Post("/previous", h.Previous)
		r.Post("/next", h.Next)
		r.Post("/reload", h.Reload)

		// Media lookups.
		r.Get("/media/*", h.DateFor)
		r.Get("/search", h.Search)
		r.Get("/files/*", fh.ServeFile)
	})

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
