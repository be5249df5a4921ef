package navigation

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/starford/chronogrid/internal/apperr"
	"github.com/starford/chronogrid/internal/timeline"
)

type fakeGrid struct {
	geom     Geometry
	commands []ScrollCommand
}

func (g *fakeGrid) Geometry() Geometry           { return g.geom }
func (g *fakeGrid) ScrollToRow(cmd ScrollCommand) { g.commands = append(g.commands, cmd) }

func (g *fakeGrid) last(t *testing.T) ScrollCommand {
	t.Helper()
	if len(g.commands) == 0 {
		t.Fatal("no scroll command issued")
	}
	return g.commands[len(g.commands)-1]
}

// Layout with 2 columns:
//
//	0 sep 2023-02 | 1 c
//	2 sep 2023-01 | 3 a
//	4 b           | 5 pad
//	6 sep 2022-12 | 7 e
var (
	scenarioIDs   = []string{"a", "b", "c", "d", "e"}
	scenarioDates = []string{"2023-01-05", "2023-01-20", "2023-02-01", "", "2022-12-15"}
)

type harness struct {
	ctl     *Controller
	grid    *fakeGrid
	clock   clockwork.FakeClock
	changes []State
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		grid:  &fakeGrid{geom: Geometry{RowHeight: 100, Columns: 2}},
		clock: clockwork.NewFakeClock(),
	}
	base := []Option{
		WithClock(h.clock),
		WithColumns(2),
		WithObserver(func(s State) { h.changes = append(h.changes, s) }),
	}
	h.ctl = New(h.grid, append(base, opts...)...)
	return h
}

func TestController_InitializesToLatestYear(t *testing.T) {
	h := newHarness(t)
	if got := h.ctl.State().YearMonth; got != "" {
		t.Fatalf("state before data = %q, want empty", got)
	}
	h.ctl.SetData(scenarioIDs, scenarioDates)

	st := h.ctl.State()
	if st.YearMonth != "2023-01" || st.Label != "January 2023" {
		t.Errorf("state = %+v, want 2023-01 / January 2023", st)
	}
	if len(h.changes) != 1 {
		t.Errorf("observer calls = %d, want 1", len(h.changes))
	}
}

func TestController_EmptyDataset(t *testing.T) {
	h := newHarness(t)
	h.ctl.SetData(nil, nil)
	h.ctl.SetData([]string{"x"}, []string{""})

	if h.ctl.State().YearMonth != "" {
		t.Error("state should stay empty without dated media")
	}
	if h.ctl.JumpTo(2023, 1) || h.ctl.Previous() || h.ctl.Next() {
		t.Error("navigation on an empty dataset must fail")
	}
	h.ctl.OnScroll(500)
	h.clock.Advance(time.Second)
	if h.ctl.Flush() {
		t.Error("scroll on an empty dataset must not change state")
	}
	if len(h.grid.commands) != 0 {
		t.Errorf("unexpected scroll commands: %v", h.grid.commands)
	}
}

func TestController_JumpTo(t *testing.T) {
	h := newHarness(t)
	h.ctl.SetData(scenarioIDs, scenarioDates)

	if !h.ctl.JumpTo(2022, 12) {
		t.Fatal("JumpTo(2022, 12) failed")
	}
	if cmd := h.grid.last(t); cmd.Row != 3 || cmd.Align != AlignStart {
		t.Errorf("command = %+v, want row 3 start", cmd)
	}
	if st := h.ctl.State(); st.YearMonth != "2022-12" || st.Label != "December 2022" {
		t.Errorf("state = %+v", st)
	}

	before := h.ctl.State()
	issued := len(h.grid.commands)
	if h.ctl.JumpTo(2021, 5) {
		t.Error("JumpTo a month without media should fail")
	}
	if h.ctl.JumpTo(2023, 13) {
		t.Error("JumpTo an invalid month should fail")
	}
	if h.ctl.State() != before || len(h.grid.commands) != issued {
		t.Error("failed jump must not change state or scroll")
	}
}

func TestController_JumpFallsBackToOriginalIndex(t *testing.T) {
	h := newHarness(t)
	h.ctl.SetData(scenarioIDs, scenarioDates)
	// Drop the layout so that only the date index knows the bucket.
	h.ctl.separators = map[timeline.YearMonth]int{}

	if !h.ctl.JumpTo(2022, 12) {
		t.Fatal("fallback jump failed")
	}
	// e sits at original index 4 -> row 2 with 2 columns.
	if cmd := h.grid.last(t); cmd.Row != 2 {
		t.Errorf("fallback row = %d, want 2", cmd.Row)
	}
}

func TestController_PreviousNextTraverseAllBuckets(t *testing.T) {
	h := newHarness(t)
	ids := []string{"a", "b", "c", "d", "e", "f"}
	dates := []string{"2021-03-01", "2023-07-09", "2022-11-30", "2021-03-15", "2023-01-01", "bad"}
	h.ctl.SetData(ids, dates)

	want := []timeline.YearMonth{"2021-03", "2022-11", "2023-01", "2023-07"}

	if !h.ctl.JumpTo(2021, 3) {
		t.Fatal("JumpTo oldest failed")
	}
	if h.ctl.Previous() {
		t.Error("Previous at the oldest month should fail")
	}
	if h.ctl.State().YearMonth != want[0] {
		t.Fatalf("failed Previous changed state to %q", h.ctl.State().YearMonth)
	}
	for _, ym := range want[1:] {
		if !h.ctl.Next() {
			t.Fatalf("Next to %s failed", ym)
		}
		if got := h.ctl.State().YearMonth; got != ym {
			t.Fatalf("Next landed on %s, want %s", got, ym)
		}
	}
	if h.ctl.Next() {
		t.Error("Next at the newest month should fail")
	}
	for i := len(want) - 2; i >= 0; i-- {
		if !h.ctl.Previous() || h.ctl.State().YearMonth != want[i] {
			t.Fatalf("Previous should land on %s, got %s", want[i], h.ctl.State().YearMonth)
		}
	}
}

func TestController_ScrollIsDecimatedAndUsesLastOffset(t *testing.T) {
	h := newHarness(t)
	h.ctl.SetData(scenarioIDs, scenarioDates)
	h.changes = nil

	h.ctl.OnScroll(610)
	h.clock.Advance(10 * time.Millisecond)
	h.ctl.OnScroll(650)

	if h.ctl.State().LastScrollOffset != 0 {
		t.Fatal("offset handled before the window closed")
	}
	if !h.ctl.PendingScroll() {
		t.Fatal("expected a pending scroll window")
	}

	h.clock.Advance(100 * time.Millisecond)
	if !h.ctl.Flush() {
		t.Fatal("flush should change the month")
	}
	st := h.ctl.State()
	if st.LastScrollOffset != 650 {
		t.Errorf("LastScrollOffset = %v, want 650 (the later offset)", st.LastScrollOffset)
	}
	if st.YearMonth != "2022-12" {
		t.Errorf("month = %s, want 2022-12", st.YearMonth)
	}
	if len(h.changes) != 1 {
		t.Errorf("state updates = %d, want 1", len(h.changes))
	}
	if h.ctl.Flush() {
		t.Error("second flush without new events should be a no-op")
	}
}

func TestController_ScrollThreshold(t *testing.T) {
	h := newHarness(t, WithThrottle(0))
	h.ctl.SetData(scenarioIDs, scenarioDates)

	h.ctl.OnScroll(40) // within 50 of 0
	if h.ctl.State().LastScrollOffset != 0 {
		t.Error("jitter below the threshold should be ignored")
	}
	h.ctl.OnScroll(620)
	if st := h.ctl.State(); st.LastScrollOffset != 620 || st.YearMonth != "2022-12" {
		t.Errorf("state = %+v", st)
	}
	h.ctl.OnScroll(0)
	if st := h.ctl.State(); st.YearMonth != "2023-02" {
		t.Errorf("scrolling back to top gave %s, want 2023-02", st.YearMonth)
	}
}

func TestController_SchedulerArmedOncePerWindow(t *testing.T) {
	var scheduled []time.Duration
	h := newHarness(t, WithScheduler(func(d time.Duration) { scheduled = append(scheduled, d) }))
	h.ctl.SetData(scenarioIDs, scenarioDates)

	h.ctl.OnScroll(100)
	h.ctl.OnScroll(200)
	h.ctl.OnScroll(300)
	if len(scheduled) != 1 || scheduled[0] != DefaultThrottle {
		t.Fatalf("scheduled = %v, want one %v", scheduled, DefaultThrottle)
	}
	h.clock.Advance(DefaultThrottle)
	h.ctl.Flush()
	h.ctl.OnScroll(400)
	if len(scheduled) != 2 {
		t.Errorf("new window should schedule again, got %v", scheduled)
	}
}

func TestController_ColumnsChangeRelayout(t *testing.T) {
	h := newHarness(t)
	h.ctl.SetData(scenarioIDs, scenarioDates)

	if err := h.ctl.SetColumns(0); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("SetColumns(0) err = %v", err)
	}
	if h.ctl.Columns() != 2 {
		t.Fatal("rejected column count must leave layout intact")
	}

	if err := h.ctl.SetColumns(3); err != nil {
		t.Fatal(err)
	}
	// 3 columns: sep 2023-02, c, pad | sep 2023-01, a, b | sep 2022-12, e
	if pos := h.ctl.Separators()["2022-12"]; pos != 6 {
		t.Errorf("2022-12 separator at %d, want 6", pos)
	}
	h.ctl.JumpTo(2022, 12)
	if cmd := h.grid.last(t); cmd.Row != 2 {
		t.Errorf("row = %d, want 2", cmd.Row)
	}
	for _, it := range h.ctl.Items() {
		if it.IsSeparator() && it.ActualIndex%3 != 0 {
			t.Errorf("separator %s misaligned", it.YearMonth)
		}
	}
}

func TestController_GeometryColumnsRevalidate(t *testing.T) {
	h := newHarness(t, WithThrottle(0))
	h.ctl.SetData(scenarioIDs, scenarioDates)
	h.grid.geom.Columns = 3

	h.ctl.OnScroll(200) // row 2 -> item 6 with 3 columns
	if h.ctl.Columns() != 3 {
		t.Fatalf("columns = %d, want 3 after geometry change", h.ctl.Columns())
	}
	if got := h.ctl.State().YearMonth; got != "2022-12" {
		t.Errorf("month = %s, want 2022-12", got)
	}
}

func TestController_SetDataCaching(t *testing.T) {
	h := newHarness(t)
	h.ctl.SetData(scenarioIDs, scenarioDates)
	idx, items := h.ctl.Index(), h.ctl.Items()
	v := h.ctl.Version()

	h.ctl.SetData(append([]string(nil), scenarioIDs...), append([]string(nil), scenarioDates...))
	if h.ctl.Index() != idx || &h.ctl.Items()[0] != &items[0] || h.ctl.Version() != v {
		t.Error("identical content must not rebuild")
	}

	if err := h.ctl.SetColumns(4); err != nil {
		t.Fatal(err)
	}
	if h.ctl.Index() != idx {
		t.Error("column change must not rebuild the date index")
	}

	h.ctl.SetData([]string{"z"}, []string{"2019-04-04"})
	if h.ctl.Index() == idx {
		t.Error("new content must rebuild the date index")
	}
	if st := h.ctl.State(); st.YearMonth != "2019-04" {
		t.Errorf("stale month should be replaced, got %q", st.YearMonth)
	}
}

func TestController_SetDataKeepsExistingMonth(t *testing.T) {
	h := newHarness(t)
	h.ctl.SetData(scenarioIDs, scenarioDates)
	h.ctl.JumpTo(2022, 12)

	h.ctl.SetData(append(scenarioIDs, "f"), append(scenarioDates, "2024-01-01"))
	if got := h.ctl.State().YearMonth; got != "2022-12" {
		t.Errorf("month = %s, want 2022-12 to survive a reload", got)
	}
}
