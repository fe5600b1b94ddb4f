// Package session tracks the current identity session and the
// authenticated/unauthenticated state the rest of the application keys off.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// State is the position of the session state machine. The machine starts
// in StateInitializing and oscillates between the other two states for the
// lifetime of the process; there is no terminal state.
type State string

const (
	StateInitializing    State = "initializing"
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

// Session is the authenticated-user context issued by the identity provider
type Session struct {
	UserID uuid.UUID
	Email  string
}

// Handler receives the new state and session on every change notification
type Handler func(State, *Session)

// Observer holds the current session, replaced wholesale on every provider
// notification. The identity provider drives exactly one Observer; consumers
// register change handlers rather than polling.
type Observer struct {
	mu       sync.RWMutex
	state    State
	current  *Session
	handlers map[int]Handler
	nextID   int
}

// NewObserver creates an observer in the initializing state
func NewObserver() *Observer {
	return &Observer{
		state:    StateInitializing,
		handlers: make(map[int]Handler),
	}
}

// Notify replaces the current session. A nil session means signed out.
// The first notification moves the machine out of initializing either way.
func (o *Observer) Notify(s *Session) {
	o.mu.Lock()
	o.current = s
	if s != nil {
		o.state = StateAuthenticated
	} else {
		o.state = StateUnauthenticated
	}
	state := o.state
	handlers := make([]Handler, 0, len(o.handlers))
	for _, h := range o.handlers {
		handlers = append(handlers, h)
	}
	o.mu.Unlock()

	for _, h := range handlers {
		h(state, s)
	}
}

// OnChange registers a change handler and returns its unregister function
func (o *Observer) OnChange(h Handler) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.handlers[id] = h
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.handlers, id)
		o.mu.Unlock()
	}
}

// State returns the current machine state
func (o *Observer) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Current returns the current session, or nil when unauthenticated
func (o *Observer) Current() *Session {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}
