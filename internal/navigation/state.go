package navigation

import (
	"math"

	"github.com/starford/chronogrid/internal/timeline"
)

// State is what the calendar indicator shows. An empty YearMonth means
// no month is selected yet.
type State struct {
	YearMonth        timeline.YearMonth `json:"year_month"`
	Label            string             `json:"label"`
	LastScrollOffset float64            `json:"last_scroll_offset"`
}

// Initialize selects the most recent year's earliest month when s has no
// month, or when its month is no longer present in idx.
func Initialize(s State, idx *timeline.DateIndex) State {
	if s.YearMonth != "" && idx.Has(s.YearMonth) {
		return s
	}
	ym, ok := idx.Latest()
	if !ok {
		s.YearMonth, s.Label = "", ""
		return s
	}
	s.YearMonth, s.Label = ym, timeline.Label(ym)
	return s
}

// ApplyScroll handles one decimated scroll offset. Offsets within threshold
// of the last handled one are ignored. The boolean reports a month change.
func ApplyScroll(s State, offset, threshold float64, estimate func(float64) (timeline.YearMonth, bool)) (State, bool) {
	if !(math.Abs(offset-s.LastScrollOffset) > threshold) {
		return s, false
	}
	s.LastScrollOffset = offset
	ym, ok := estimate(offset)
	if !ok || ym == s.YearMonth {
		return s, false
	}
	s.YearMonth, s.Label = ym, timeline.Label(ym)
	return s, true
}

// ApplyJump records a successful jump to ym.
func ApplyJump(s State, ym timeline.YearMonth) State {
	s.YearMonth, s.Label = ym, timeline.Label(ym)
	return s
}
