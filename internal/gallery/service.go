// Package gallery hosts the two navigable panes (source and destination)
// of the media browser. Each pane owns a navigation controller fed from
// the catalog and serialises access to it.
package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/starford/chronogrid/internal/apperr"
	"github.com/starford/chronogrid/internal/models"
	"github.com/starford/chronogrid/internal/navigation"
	"github.com/starford/chronogrid/internal/timeline"
)

// Pane names.
const (
	PaneSource      = "source"
	PaneDestination = "destination"
)

// Panes returns the pane names in display order.
func Panes() []string { return []string{PaneSource, PaneDestination} }

// Defaults for pane layout and reload debouncing.
const (
	DefaultRowHeight   = 200.0
	DefaultReloadDelay = 250 * time.Millisecond
	DefaultPageLimit   = 200
)

// Source supplies the media sequence of a pane.
type Source interface {
	Sequence(pane string) (ids, dates []string, err error)
	Search(pane, query string, limit int) ([]models.MediaRecord, error)
}

// Notifier receives pane events, typically to fan them out to clients.
type Notifier interface {
	PositionChanged(p Position)
	ScrollCommanded(pane, id string, cmd navigation.ScrollCommand)
}

type nopNotifier struct{}

func (nopNotifier) PositionChanged(Position)                                 {}
func (nopNotifier) ScrollCommanded(string, string, navigation.ScrollCommand) {}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock driving scroll flushes and reload debouncing.
func WithClock(c clockwork.Clock) Option { return func(s *Service) { s.clock = c } }

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithNotifier sets the event sink.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithLayout sets the initial column count and row height of every pane.
func WithLayout(columns int, rowHeight float64) Option {
	return func(s *Service) {
		if columns >= 1 {
			s.columns = columns
		}
		if rowHeight > 0 {
			s.rowHeight = rowHeight
		}
	}
}

// WithScrollPolicy sets the scroll coalescing window and offset threshold.
func WithScrollPolicy(throttle time.Duration, threshold float64) Option {
	return func(s *Service) {
		s.throttle = throttle
		s.threshold = threshold
	}
}

// WithReloadDelay sets how long Invalidate waits for further changes.
func WithReloadDelay(d time.Duration) Option { return func(s *Service) { s.reloadDelay = d } }

// Service coordinates the panes.
type Service struct {
	src         Source
	clock       clockwork.Clock
	logger      *slog.Logger
	notifier    Notifier
	columns     int
	rowHeight   float64
	throttle    time.Duration
	threshold   float64
	reloadDelay time.Duration

	panes map[string]*pane
}

// NewService creates the panes. They stay empty until Reload is called.
func NewService(src Source, opts ...Option) *Service {
	s := &Service{
		src:         src,
		clock:       clockwork.NewRealClock(),
		logger:      slog.Default(),
		notifier:    nopNotifier{},
		columns:     navigation.DefaultColumns,
		rowHeight:   DefaultRowHeight,
		throttle:    navigation.DefaultThrottle,
		threshold:   navigation.DefaultScrollThreshold,
		reloadDelay: DefaultReloadDelay,
		panes:       make(map[string]*pane),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, name := range Panes() {
		s.panes[name] = s.newPane(name)
	}
	return s
}

func (s *Service) newPane(name string) *pane {
	p := &pane{name: name}
	p.grid = &grid{
		geom: navigation.Geometry{RowHeight: s.rowHeight, Columns: s.columns},
		emit: func(id string, cmd navigation.ScrollCommand) { s.notifier.ScrollCommanded(name, id, cmd) },
	}
	p.ctl = navigation.New(p.grid,
		navigation.WithClock(s.clock),
		navigation.WithThrottle(s.throttle),
		navigation.WithScrollThreshold(s.threshold),
		navigation.WithColumns(s.columns),
		navigation.WithLogger(s.logger.With(slog.String("pane", name))),
		navigation.WithObserver(func(navigation.State) { s.notifier.PositionChanged(p.position()) }),
		// Called with p.mu held from OnScroll.
		navigation.WithScheduler(func(d time.Duration) {
			if p.closed {
				return
			}
			if p.flush != nil {
				p.flush.Stop()
			}
			p.flush = s.clock.AfterFunc(d, func() {
				p.mu.Lock()
				defer p.mu.Unlock()
				if !p.closed {
					p.ctl.Flush()
				}
			})
		}),
	)
	return p
}

func (s *Service) pane(name string) (*pane, error) {
	p, ok := s.panes[name]
	if !ok {
		return nil, fmt.Errorf("gallery: pane %q: %w", name, apperr.ErrUnknownPane)
	}
	return p, nil
}

// Reload re-reads a pane's sequence from the source. Derived structures are
// rebuilt only if the content changed.
func (s *Service) Reload(ctx context.Context, name string) error {
	p, err := s.pane(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ids, dates, err := s.src.Sequence(name)
	if err != nil {
		return fmt.Errorf("gallery: reload %s: %w", name, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctl.SetData(ids, dates)
	return nil
}

// ReloadAll reloads every pane.
func (s *Service) ReloadAll(ctx context.Context) error {
	for _, name := range Panes() {
		if err := s.Reload(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate schedules a reload of a pane. Calls arriving within the
// reload delay are folded into one reload.
func (s *Service) Invalidate(name string) {
	p, err := s.pane(name)
	if err != nil {
		s.logger.Warn("gallery: invalidate", slog.String("error", err.Error()))
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.reload != nil {
		p.reload.Stop()
	}
	p.reload = s.clock.AfterFunc(s.reloadDelay, func() {
		if err := s.Reload(context.Background(), name); err != nil {
			s.logger.Warn("gallery: reload failed", slog.String("pane", name), slog.String("error", err.Error()))
		}
	})
}

// Close stops pending timers. The service must not be used afterwards.
func (s *Service) Close() {
	for _, p := range s.panes {
		p.mu.Lock()
		p.closed = true
		p.stopTimers()
		p.mu.Unlock()
	}
}

// Position returns the current state of a pane.
func (s *Service) Position(name string) (Position, error) {
	p, err := s.pane(name)
	if err != nil {
		return Position{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position(), nil
}

// Calendar returns the years and months a pane can navigate to.
func (s *Service) Calendar(name string) (Calendar, error) {
	p, err := s.pane(name)
	if err != nil {
		return Calendar{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return buildCalendar(name, p.ctl.Index(), p.ctl.State().YearMonth), nil
}

// Items returns up to limit entries of the enriched sequence starting at
// offset. An offset past the end yields an empty page.
func (s *Service) Items(name string, offset, limit int) (Page, error) {
	p, err := s.pane(name)
	if err != nil {
		return Page{}, err
	}
	if offset < 0 {
		return Page{}, fmt.Errorf("gallery: offset %d: %w", offset, apperr.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	all := p.ctl.Items()
	page := Page{Pane: name, Columns: p.ctl.Columns(), Total: len(all), Offset: offset, Items: []timeline.GalleryItem{}}
	if offset < len(all) {
		end := min(offset+limit, len(all))
		page.Items = append(page.Items, all[offset:end]...)
	}
	return page, nil
}

// SetLayout updates the column count and, when rowHeight is positive, the
// row height the client renders with.
func (s *Service) SetLayout(name string, columns int, rowHeight float64) (Position, error) {
	p, err := s.pane(name)
	if err != nil {
		return Position{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ctl.SetColumns(columns); err != nil {
		return Position{}, err
	}
	p.grid.geom.Columns = columns
	if rowHeight > 0 {
		p.grid.geom.RowHeight = rowHeight
	}
	return p.position(), nil
}

// Scroll feeds a scroll offset reported by the client. The returned
// position reflects the offset only once its coalescing window has closed.
func (s *Service) Scroll(name string, offset float64) (Position, error) {
	p, err := s.pane(name)
	if err != nil {
		return Position{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctl.OnScroll(offset)
	return p.position(), nil
}

// Jump scrolls a pane to the first row of a month.
func (s *Service) Jump(name string, year, month int) (Move, error) {
	return s.move(name, fmt.Sprintf("%04d-%02d", year, month), apperr.ErrNotFound, func(c *navigation.Controller) bool {
		return c.JumpTo(year, month)
	})
}

// Previous moves a pane to the chronologically preceding month.
func (s *Service) Previous(name string) (Move, error) {
	return s.move(name, "previous", apperr.ErrOutOfRange, (*navigation.Controller).Previous)
}

// Next moves a pane to the chronologically following month.
func (s *Service) Next(name string) (Move, error) {
	return s.move(name, "next", apperr.ErrOutOfRange, (*navigation.Controller).Next)
}

func (s *Service) move(name, what string, miss error, fn func(*navigation.Controller) bool) (Move, error) {
	p, err := s.pane(name)
	if err != nil {
		return Move{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !fn(p.ctl) {
		return Move{}, fmt.Errorf("gallery: %s %s: %w", name, what, miss)
	}
	return Move{Position: p.position(), Command: p.grid.last, CommandID: p.grid.lastID}, nil
}

// DateFor returns the recorded date of a dated media id.
func (s *Service) DateFor(name, id string) (string, error) {
	p, err := s.pane(name)
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.ctl.Index().DateFor(id)
	if !ok {
		return "", fmt.Errorf("gallery: date for %q: %w", id, apperr.ErrNotFound)
	}
	return d, nil
}

// Search looks up media of a pane by id, title or tag.
func (s *Service) Search(name, query string, limit int) ([]Hit, error) {
	if _, err := s.pane(name); err != nil {
		return nil, err
	}
	recs, err := s.src.Search(name, query, limit)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(recs))
	for _, r := range recs {
		h := Hit{ID: r.ID, TakenOn: r.TakenOn, Title: r.Title, Tags: r.Tags}
		if ym, ok := timeline.ParseDate(r.TakenOn); ok {
			h.YearMonth = ym
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// Summaries describes every pane.
func (s *Service) Summaries() []Summary {
	out := make([]Summary, 0, len(s.panes))
	for _, name := range Panes() {
		p := s.panes[name]
		p.mu.Lock()
		idx := p.ctl.Index()
		out = append(out, Summary{
			Pane:    name,
			Media:   idx.Len() + len(idx.Skipped),
			Dated:   idx.Len(),
			Months:  len(idx.YearMonthToIndex),
			Current: p.ctl.State().YearMonth,
		})
		p.mu.Unlock()
	}
	return out
}
