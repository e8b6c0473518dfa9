package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"roomcraft/internal/workflow"
)

// Broadcaster fans stage events out to every connected WebSocket. Slow
// subscribers drop events rather than blocking the workflow.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan workflow.Event]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan workflow.Event]struct{})}
}

func (b *Broadcaster) Subscribe() chan workflow.Event {
	ch := make(chan workflow.Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan workflow.Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Publish(ev workflow.Event) {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	b.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced by the HTTP middleware; the handshake accepts any
	// origin the middleware let through.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Handlers) events(w http.ResponseWriter, r *http.Request) {
	session, ok := h.registry.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("events: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := session.Events.Subscribe()
	defer session.Events.Unsubscribe(ch)

	// Drain client frames so closes are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Current state first, then the live stream.
	snap := session.Controller.Current()
	if err := conn.WriteJSON(workflow.Event{Stage: snap.Stage, Busy: session.Controller.Busy()}); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
