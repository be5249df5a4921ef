package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/chronogrid/internal/gallery"
)

// Handler holds API route handlers.
type Handler struct {
	svc *gallery.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *gallery.Service) *Handler {
	return &Handler{svc: svc}
}

// wildcardPath extracts the media id from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. 2023%2Fbeach.jpg).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// parsePage reads offset and limit query parameters.
func parsePage(w http.ResponseWriter, r *http.Request) (pageQuery, bool) {
	var q pageQuery
	for name, dst := range map[string]*int{"offset": &q.Offset, "limit": &q.Limit} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(name+": must be an integer"))
			return q, false
		}
		*dst = n
	}
	if err := q.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return q, false
	}
	return q, true
}

// Summaries handles GET /api/panes.
//
//	@Summary		Summarise every pane
//	@Tags			panes
//	@Produce		json
//	@Success		200	{array}	gallery.Summary
//	@Security		BearerAuth
//	@Router			/panes [get]
func (h *Handler) Summaries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Summaries())
}

// Calendar handles GET /api/panes/{pane}/calendar.
//
//	@Summary		Years and months available in a pane
//	@Tags			panes
//	@Produce		json
//	@Param			pane	path		string	true	"Pane"	Enums(source, destination)
//	@Success		200		{object}	Calendar
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/panes/{pane}/calendar [get]
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.svc.Calendar(chi.URLParam(r, "pane"))
	if err != nil {
		writeError(w, "calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// Items handles GET /api/panes/{pane}/items.
//
//	@Summary		Page through the gallery sequence with month separators
//	@Tags			panes
//	@Produce		json
//	@Param			pane	path		string	true	"Pane"
//	@Param			offset	query		int		false	"First item"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	Page
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/panes/{pane}/items [get]
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	q, ok := parsePage(w, r)
	if !ok {
		return
	}
	page, err := h.svc.Items(chi.URLParam(r, "pane"), q.Offset, q.Limit)
	if err != nil {
		writeError(w, "items", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// SetColumns handles PUT /api/panes/{pane}/columns.
//
//	@Summary		Change the grid layout
//	@Tags			panes
//	@Accept			json
//	@Produce		json
//	@Param			pane	path		string			true	"Pane"
//	@Param			body	body		ColumnsRequest	true	"Layout"
//	@Success		200		{object}	Position
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/panes/{pane}/columns [put]
func (h *Handler) SetColumns(w http.ResponseWriter, r *http.Request) {
	var req ColumnsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pos, err := h.svc.SetLayout(chi.URLParam(r, "pane"), req.Columns, req.RowHeight)
	if err != nil {
		writeError(w, "set columns", err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// Position handles GET /api/panes/{pane}/position.
//
//	@Summary		Current month of a pane
//	@Tags			navigation
//	@Produce		json
//	@Param			pane	path		string	true	"Pane"
//	@Success		200		{object}	Position
//	@Security		BearerAuth
//	@Router			/panes/{pane}/position [get]
func (h *Handler) Position(w http.ResponseWriter, r *http.Request) {
	pos, err := h.svc.Position(chi.URLParam(r, "pane"))
	if err != nil {
		writeError(w, "position", err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// Scroll handles POST /api/panes/{pane}/scroll.
// The response reflects the offset only once its throttle window closed;
// later changes arrive as position.changed events.
//
//	@Summary		Report a scroll offset
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Param			pane	path		string			true	"Pane"
//	@Param			body	body		ScrollRequest	true	"Offset"
//	@Success		202		{object}	Position
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/panes/{pane}/scroll [post]
func (h *Handler) Scroll(w http.ResponseWriter, r *http.Request) {
	var req ScrollRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pos, err := h.svc.Scroll(chi.URLParam(r, "pane"), *req.Offset)
	if err != nil {
		writeError(w, "scroll", err)
		return
	}
	writeJSON(w, http.StatusAccepted, pos)
}

// Jump handles POST /api/panes/{pane}/jump.
//
//	@Summary		Scroll to the first row of a month
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Param			pane	path		string		true	"Pane"
//	@Param			body	body		JumpRequest	true	"Target month"
//	@Success		200		{object}	Move
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/panes/{pane}/jump [post]
func (h *Handler) Jump(w http.ResponseWriter, r *http.Request) {
	var req JumpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mv, err := h.svc.Jump(chi.URLParam(r, "pane"), *req.Year, req.Month)
	if err != nil {
		writeError(w, "jump", err)
		return
	}
	writeJSON(w, http.StatusOK, mv)
}

// Previous handles POST /api/panes/{pane}/previous.
//
//	@Summary		Move to the preceding month
//	@Tags			navigation
//	@Produce		json
//	@Param			pane	path		string	true	"Pane"
//	@Success		200		{object}	Move
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/panes/{pane}/previous [post]
func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	mv, err := h.svc.Previous(chi.URLParam(r, "pane"))
	if err != nil {
		writeError(w, "previous", err)
		return
	}
	writeJSON(w, http.StatusOK, mv)
}

// Next handles POST /api/panes/{pane}/next.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	mv, err := h.svc.Next(chi.URLParam(r, "pane"))
	if err != nil {
		writeError(w, "next", err)
		return
	}
	writeJSON(w, http.StatusOK, mv)
}

// Reload handles POST /api/panes/{pane}/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	pane := chi.URLParam(r, "pane")
	if err := h.svc.Reload(r.Context(), pane); err != nil {
		writeError(w, "reload", err)
		return
	}
	pos, err := h.svc.Position(pane)
	if err != nil {
		writeError(w, "reload", err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// DateFor handles GET /api/panes/{pane}/media/*.
//
//	@Summary		Recorded date of a media file
//	@Tags			media
//	@Produce		json
//	@Param			pane	path		string	true	"Pane"
//	@Param			id		path		string	true	"Media id"
//	@Success		200		{object}	DateResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/panes/{pane}/media/{id} [get]
func (h *Handler) DateFor(w http.ResponseWriter, r *http.Request) {
	id := wildcardPath(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	d, err := h.svc.DateFor(chi.URLParam(r, "pane"), id)
	if err != nil {
		writeError(w, "date for", err)
		return
	}
	writeJSON(w, http.StatusOK, DateResponse{ID: id, Date: d})
}

// Search handles GET /api/panes/{pane}/search.
//
//	@Summary		Find media by path or sidecar title
//	@Tags			media
//	@Produce		json
//	@Param			pane	path		string	true	"Pane"
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/panes/{pane}/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}
	hits, err := h.svc.Search(chi.URLParam(r, "pane"), q, page.Limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: hits})
}
