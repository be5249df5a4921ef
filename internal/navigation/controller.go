package navigation

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/starford/chronogrid/internal/apperr"
	"github.com/starford/chronogrid/internal/checksum"
	"github.com/starford/chronogrid/internal/timeline"
)

// Defaults for the scroll decimation policy.
const (
	DefaultThrottle        = 100 * time.Millisecond
	DefaultScrollThreshold = 50.0
	DefaultColumns         = 5
)

// Scheduler arranges for Flush to be called after d. The controller does
// not call Flush from another goroutine itself.
type Scheduler func(d time.Duration)

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for scroll decimation.
func WithClock(c clockwork.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithThrottle sets the scroll coalescing window.
func WithThrottle(d time.Duration) Option {
	return func(ctl *Controller) { ctl.interval = d }
}

// WithScrollThreshold sets the minimum offset change that is acted upon.
func WithScrollThreshold(v float64) Option {
	return func(ctl *Controller) { ctl.threshold = v }
}

// WithColumns sets the initial column count. Values below 1 are ignored.
func WithColumns(n int) Option {
	return func(ctl *Controller) {
		if n >= 1 {
			ctl.columns = n
		}
	}
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

// WithScheduler sets the hook used to flush a pending scroll window.
func WithScheduler(s Scheduler) Option {
	return func(ctl *Controller) { ctl.schedule = s }
}

// WithObserver registers fn to be called whenever the selected month changes.
func WithObserver(fn func(State)) Option {
	return func(ctl *Controller) { ctl.observer = fn }
}

// Controller owns the navigation state of one gallery grid.
//
// It is driven from a single logical thread: data updates, column changes,
// scroll events and jump requests must not be issued concurrently.
type Controller struct {
	grid      Grid
	clock     clockwork.Clock
	interval  time.Duration
	threshold float64
	schedule  Scheduler
	observer  func(State)
	logger    *slog.Logger
	diag      rate.Sometimes

	throttle *Throttle[float64]

	ids     []string
	dates   []string
	version string
	columns int

	index        *timeline.DateIndex
	indexVersion string

	items         []timeline.GalleryItem
	separators    map[timeline.YearMonth]int
	layoutVersion string
	layoutColumns int

	state State
}

// New returns a Controller driving grid.
func New(grid Grid, opts ...Option) *Controller {
	c := &Controller{
		grid:      grid,
		clock:     clockwork.NewRealClock(),
		interval:  DefaultThrottle,
		threshold: DefaultScrollThreshold,
		columns:   DefaultColumns,
		logger:    slog.Default(),
		diag:      rate.Sometimes{First: 1, Interval: time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.throttle = NewThrottle[float64](c.clock, c.interval)
	c.index = timeline.BuildIndex(nil, nil)
	c.separators = map[timeline.YearMonth]int{}
	c.version = checksum.Sequence(nil, nil)
	c.indexVersion = c.version
	c.layoutVersion = c.version
	c.layoutColumns = c.columns
	return c
}

// SetData replaces the media sequence. Derived structures are rebuilt only
// when the content actually changed.
func (c *Controller) SetData(ids, dates []string) {
	v := checksum.Sequence(ids, dates)
	if v == c.version {
		return
	}
	c.ids, c.dates, c.version = slices.Clone(ids), slices.Clone(dates), v
	c.rebuild()
}

// SetColumns changes the grid column count and relays out the sequence.
func (c *Controller) SetColumns(n int) error {
	if n < 1 {
		return fmt.Errorf("navigation: columns %d: %w", n, apperr.ErrInvalidArgument)
	}
	if n == c.columns {
		return nil
	}
	c.columns = n
	c.rebuild()
	return nil
}

func (c *Controller) rebuild() {
	if c.indexVersion != c.version {
		c.index = timeline.BuildIndex(c.ids, c.dates)
		c.indexVersion = c.version
		if n := len(c.index.Skipped); n > 0 {
			c.diag.Do(func() {
				c.logger.Debug("navigation: undated media excluded",
					slog.Int("count", n),
					slog.Int("total", len(c.ids)))
			})
		}
	}
	if c.layoutVersion != c.version || c.layoutColumns != c.columns {
		items, err := timeline.Enrich(c.ids, c.dates, c.columns)
		if err != nil {
			// columns is validated on the way in.
			c.logger.Error("navigation: enrich failed", slog.String("error", err.Error()))
			return
		}
		c.items = items
		c.separators = timeline.Locate(items)
		c.layoutVersion, c.layoutColumns = c.version, c.columns
	}
	c.setState(Initialize(c.state, c.index))
}

// OnScroll feeds a raw scroll offset from the grid. Offsets are coalesced
// per throttle window and only the last one of a window is handled.
func (c *Controller) OnScroll(offset float64) {
	if c.throttle.Offer(offset) && c.schedule != nil && c.interval > 0 {
		c.schedule(c.interval)
	}
	c.Flush()
}

// Flush handles the pending scroll offset if its window has closed and
// reports whether the selected month changed.
func (c *Controller) Flush() bool {
	offset, ok := c.throttle.Take()
	if !ok {
		return false
	}
	geom := c.grid.Geometry()
	if geom.Columns >= 1 && geom.Columns != c.columns {
		_ = c.SetColumns(geom.Columns)
	}
	prev := c.state.YearMonth
	next, _ := ApplyScroll(c.state, offset, c.threshold, func(o float64) (timeline.YearMonth, bool) {
		return timeline.EstimateYearMonth(o, geom.RowHeight, c.columns, c.items)
	})
	c.setState(next)
	return next.YearMonth != prev
}

// PendingScroll reports whether a scroll window is waiting to be flushed.
func (c *Controller) PendingScroll() bool { return c.throttle.Pending() }

// JumpTo scrolls the grid to the first row of the given month. It returns
// false, leaving state untouched, when the month has no media.
func (c *Controller) JumpTo(year, month int) bool {
	ym, ok := timeline.NewYearMonth(year, month)
	if !ok {
		return false
	}
	return c.jump(ym)
}

func (c *Controller) jump(ym timeline.YearMonth) bool {
	pos, ok := c.separators[ym]
	if !ok {
		// Layout not built for this bucket; fall back to the raw sequence.
		pos, ok = c.index.YearMonthToIndex[ym]
	}
	if !ok {
		return false
	}
	c.grid.ScrollToRow(ScrollCommand{Row: pos / c.columns, Align: AlignStart})
	c.setState(ApplyJump(c.state, ym))
	return true
}

// Previous jumps to the chronologically preceding month.
func (c *Controller) Previous() bool {
	if c.state.YearMonth == "" {
		return false
	}
	ym, ok := c.index.Previous(c.state.YearMonth)
	if !ok {
		return false
	}
	return c.jump(ym)
}

// Next jumps to the chronologically following month.
func (c *Controller) Next() bool {
	if c.state.YearMonth == "" {
		return false
	}
	ym, ok := c.index.Next(c.state.YearMonth)
	if !ok {
		return false
	}
	return c.jump(ym)
}

func (c *Controller) setState(s State) {
	changed := s.YearMonth != c.state.YearMonth
	c.state = s
	if changed && c.observer != nil {
		c.observer(s)
	}
}

// State returns the current navigation state.
func (c *Controller) State() State { return c.state }

// Index returns the date index of the current data.
func (c *Controller) Index() *timeline.DateIndex { return c.index }

// Items returns the enriched sequence for the current data and columns.
// The slice must not be modified.
func (c *Controller) Items() []timeline.GalleryItem { return c.items }

// Separators returns the month to position map of Items.
func (c *Controller) Separators() map[timeline.YearMonth]int { return c.separators }

// Columns returns the column count the sequence is laid out for.
func (c *Controller) Columns() int { return c.columns }

// Version returns the content version of the current data.
func (c *Controller) Version() string { return c.version }
