package server

import (
	"sync"

	"github.com/google/uuid"

	"roomcraft/internal/workflow"
)

// Session binds one workflow controller to one browser tab.
type Session struct {
	ID         string
	Controller *workflow.Controller
	Events     *Broadcaster
}

// Registry holds the live sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	personas workflow.Personas
}

func NewRegistry(personas workflow.Personas) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		personas: personas,
	}
}

func (r *Registry) Create() *Session {
	events := NewBroadcaster()
	s := &Session{
		ID:         uuid.NewString(),
		Events:     events,
		Controller: workflow.NewController(r.personas, events.Publish),
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	return s, ok
}
