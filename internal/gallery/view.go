package gallery

import (
	"github.com/starford/chronogrid/internal/navigation"
	"github.com/starford/chronogrid/internal/timeline"
)

// Position is the calendar indicator state of one pane together with the
// layout it was computed for.
type Position struct {
	Pane             string             `json:"pane"`
	YearMonth        timeline.YearMonth `json:"year_month"`
	Label            string             `json:"label"`
	LastScrollOffset float64            `json:"last_scroll_offset"`
	Columns          int                `json:"columns"`
	RowHeight        float64            `json:"row_height"`
	Version          string             `json:"version"`
}

// Move is the outcome of a successful jump: where the pane now is and the
// scroll command issued to its grid.
type Move struct {
	Position  Position                 `json:"position"`
	Command   navigation.ScrollCommand `json:"command"`
	CommandID string                   `json:"command_id"`
}

// Month is one selectable calendar entry.
type Month struct {
	Month     int                `json:"month"`
	YearMonth timeline.YearMonth `json:"year_month"`
	Label     string             `json:"label"`
}

// Year groups the months of one year, ascending.
type Year struct {
	Year   int     `json:"year"`
	Months []Month `json:"months"`
}

// Calendar lists the years of a pane, most recent first.
type Calendar struct {
	Pane    string             `json:"pane"`
	Current timeline.YearMonth `json:"current"`
	Years   []Year             `json:"years"`
}

// Page is a window of a pane's enriched sequence.
type Page struct {
	Pane    string                 `json:"pane"`
	Columns int                    `json:"columns"`
	Total   int                    `json:"total"`
	Offset  int                    `json:"offset"`
	Items   []timeline.GalleryItem `json:"items"`
}

// Hit is a search result with the month it belongs to, when it has one.
type Hit struct {
	ID        string             `json:"id"`
	TakenOn   string             `json:"taken_on"`
	Title     string             `json:"title,omitempty"`
	Tags      []string           `json:"tags,omitempty"`
	YearMonth timeline.YearMonth `json:"year_month,omitempty"`
}

// Summary describes the catalogued content of a pane.
type Summary struct {
	Pane    string             `json:"pane"`
	Media   int                `json:"media"`
	Dated   int                `json:"dated"`
	Months  int                `json:"months"`
	Current timeline.YearMonth `json:"current"`
}

func buildCalendar(pane string, idx *timeline.DateIndex, current timeline.YearMonth) Calendar {
	cal := Calendar{Pane: pane, Current: current, Years: make([]Year, 0, len(idx.Years))}
	for _, y := range idx.Years {
		entry := Year{Year: y}
		for _, m := range idx.MonthsByYear[y] {
			ym, _ := timeline.NewYearMonth(y, m)
			entry.Months = append(entry.Months, Month{Month: m, YearMonth: ym, Label: timeline.Label(ym)})
		}
		cal.Years = append(cal.Years, entry)
	}
	return cal
}
