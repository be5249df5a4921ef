package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/chronogrid/internal/gallery"
)

// MaxPageLimit bounds GET /items and GET /search.
const MaxPageLimit = 1000

// ColumnsRequest is the body of PUT /panes/{pane}/columns.
type ColumnsRequest struct {
	Columns int `json:"columns" example:"5" validate:"required"`
	// RowHeight is optional; zero keeps the current height.
	RowHeight float64 `json:"row_height,omitempty" example:"200"`
}

// Validate implements validation.Validatable.
func (r ColumnsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Columns, validation.Required, validation.Min(1)),
		validation.Field(&r.RowHeight, validation.Min(0.0)),
	)
}

// ScrollRequest is the body of POST /panes/{pane}/scroll.
type ScrollRequest struct {
	Offset *float64 `json:"offset" example:"1200" validate:"required"`
}

// Validate implements validation.Validatable.
func (r ScrollRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Offset, validation.NotNil),
	)
}

// JumpRequest is the body of POST /panes/{pane}/jump.
// Year 0 is a valid bucket, so presence is checked on the pointer.
type JumpRequest struct {
	Year  *int `json:"year" example:"2023" validate:"required"`
	Month int  `json:"month" example:"3" validate:"required"`
}

// Validate implements validation.Validatable.
func (r JumpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Year, validation.NotNil, validation.Min(0), validation.Max(9999)),
		validation.Field(&r.Month, validation.Required, validation.Min(1), validation.Max(12)),
	)
}

// pageQuery holds the parsed query of GET /items and GET /search.
type pageQuery struct {
	Offset int
	Limit  int
}

func (q pageQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Offset, validation.Min(0)),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(MaxPageLimit)),
	)
}

// Response types are the gallery views.
type (
	Position = gallery.Position
	Move     = gallery.Move
	Calendar = gallery.Calendar
	Page     = gallery.Page
	Hit      = gallery.Hit
)

// DateResponse is returned by GET /panes/{pane}/media/{id}.
type DateResponse struct {
	ID   string `json:"id" example:"2023/beach.jpg" validate:"required"`
	Date string `json:"date" example:"2023-03-05" validate:"required"`
}

// SearchResponse wraps search hits.
type SearchResponse struct {
	Results []Hit `json:"results" validate:"required"`
}
