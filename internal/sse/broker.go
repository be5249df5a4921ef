// Package sse implements a Server-Sent Events broker that pushes pane
// position changes, scroll commands and library updates to clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/chronogrid/internal/gallery"
	"github.com/starford/chronogrid/internal/navigation"
)

// Event types.
const (
	TypePositionChanged = "position.changed"
	TypeScrollCommand   = "scroll.command"
	TypeLibraryUpdated  = "library.updated"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type mediaEventReq struct {
	kind string
	pane string
	id   string
}

// ScrollEvent is the payload of a scroll.command event.
type ScrollEvent struct {
	ID    string           `json:"id"`
	Pane  string           `json:"pane"`
	Row   int              `json:"row"`
	Align navigation.Align `json:"align"`
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop goroutine owns the client set and the per-pane
// library throttle timestamps. Public methods talk to it over channels.
type Broker struct {
	libraryMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	mediaEventCh  chan mediaEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. libraryThrottle is the minimum gap
// between two library.updated events of the same pane.
func NewBroker(libraryThrottle time.Duration) *Broker {
	if libraryThrottle <= 0 {
		libraryThrottle = 2 * time.Second
	}

	b := &Broker{
		libraryMin:    libraryThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		mediaEventCh:  make(chan mediaEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	lastLibrary := make(map[string]time.Time)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		msg := fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)
		raw := []byte(msg)

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.mediaEventCh:
			if req.id != "" {
				broadcast(Event{Type: "media." + req.kind, Data: map[string]string{"pane": req.pane, "id": req.id}})
			}

			now := time.Now()
			if now.Sub(lastLibrary[req.pane]) >= b.libraryMin {
				lastLibrary[req.pane] = now
				broadcast(Event{Type: TypeLibraryUpdated, Data: map[string]string{"pane": req.pane}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishMediaEvent publishes a catalog change as media.<kind> followed by
// a per-pane throttled library.updated event. An empty id publishes only
// the latter.
func (b *Broker) PublishMediaEvent(kind, pane, id string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.mediaEventCh <- mediaEventReq{kind: kind, pane: pane, id: id}:
	case <-b.stopped:
	}
}

// PositionChanged publishes a position.changed event.
func (b *Broker) PositionChanged(p gallery.Position) {
	b.Publish(Event{Type: TypePositionChanged, Data: p})
}

// ScrollCommanded publishes a scroll.command event.
func (b *Broker) ScrollCommanded(pane, id string, cmd navigation.ScrollCommand) {
	b.Publish(Event{Type: TypeScrollCommand, Data: ScrollEvent{ID: id, Pane: pane, Row: cmd.Row, Align: cmd.Align}})
}

var _ gallery.Notifier = (*Broker)(nil)

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
