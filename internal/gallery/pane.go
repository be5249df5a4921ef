package gallery

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/starford/chronogrid/internal/navigation"
)

// grid stands in for the client-side renderer: it reports the geometry the
// client last announced and forwards scroll commands to the notifier. Each
// command gets an id so clients can drop the copy they already applied.
type grid struct {
	geom   navigation.Geometry
	last   navigation.ScrollCommand
	lastID string
	emit   func(id string, cmd navigation.ScrollCommand)
}

func (g *grid) Geometry() navigation.Geometry { return g.geom }

func (g *grid) ScrollToRow(cmd navigation.ScrollCommand) {
	g.last, g.lastID = cmd, uuid.NewString()
	if g.emit != nil {
		g.emit(g.lastID, cmd)
	}
}

// pane is one gallery grid. mu guards everything below it, including the
// controller, which is not safe for concurrent use on its own.
type pane struct {
	name string

	mu     sync.Mutex
	ctl    *navigation.Controller
	grid   *grid
	flush  clockwork.Timer
	reload clockwork.Timer
	closed bool
}

func (p *pane) position() Position {
	st := p.ctl.State()
	return Position{
		Pane:             p.name,
		YearMonth:        st.YearMonth,
		Label:            st.Label,
		LastScrollOffset: st.LastScrollOffset,
		Columns:          p.ctl.Columns(),
		RowHeight:        p.grid.geom.RowHeight,
		Version:          p.ctl.Version(),
	}
}

func (p *pane) stopTimers() {
	if p.flush != nil {
		p.flush.Stop()
	}
	if p.reload != nil {
		p.reload.Stop()
	}
}
