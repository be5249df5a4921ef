// Package navigation keeps a virtualized grid and a calendar indicator in
// step: it maps scroll offsets to months and turns month jumps into
// scroll commands.
package navigation

// Align is the vertical alignment of a scroll target row.
type Align string

// AlignStart puts the target row at the top of the viewport.
const AlignStart Align = "start"

// ScrollCommand asks the grid renderer to bring a row into view.
type ScrollCommand struct {
	Row   int   `json:"row"`
	Align Align `json:"align"`
}

// Geometry is the grid layout in effect when a scroll event is handled.
type Geometry struct {
	RowHeight float64 `json:"row_height"`
	Columns   int     `json:"columns"`
}

// Grid is the virtualized grid renderer the controller drives.
type Grid interface {
	Geometry() Geometry
	ScrollToRow(cmd ScrollCommand)
}
