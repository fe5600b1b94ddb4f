package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestObserverStartsInitializing(t *testing.T) {
	o := NewObserver()
	assert.Equal(t, StateInitializing, o.State())
	assert.Nil(t, o.Current())
}

func TestObserverNotifySignIn(t *testing.T) {
	o := NewObserver()
	s := &Session{UserID: uuid.New(), Email: "t@example.com"}

	o.Notify(s)

	assert.Equal(t, StateAuthenticated, o.State())
	assert.Equal(t, s, o.Current())
}

func TestObserverNotifyNilLeavesInitializing(t *testing.T) {
	// A "no session" notification still moves the machine out of
	// initializing: the session question has been answered with "none".
	o := NewObserver()

	o.Notify(nil)

	assert.Equal(t, StateUnauthenticated, o.State())
	assert.Nil(t, o.Current())
}

func TestObserverOscillates(t *testing.T) {
	o := NewObserver()

	o.Notify(&Session{UserID: uuid.New(), Email: "a@example.com"})
	assert.Equal(t, StateAuthenticated, o.State())

	o.Notify(nil)
	assert.Equal(t, StateUnauthenticated, o.State())

	o.Notify(&Session{UserID: uuid.New(), Email: "b@example.com"})
	assert.Equal(t, StateAuthenticated, o.State())
}

func TestObserverHandlersSeeEveryChange(t *testing.T) {
	o := NewObserver()

	var states []State
	var sessions []*Session
	o.OnChange(func(state State, s *Session) {
		states = append(states, state)
		sessions = append(sessions, s)
	})

	s := &Session{UserID: uuid.New(), Email: "t@example.com"}
	o.Notify(s)
	o.Notify(nil)

	if assert.Len(t, states, 2) {
		assert.Equal(t, StateAuthenticated, states[0])
		assert.Equal(t, s, sessions[0])
		assert.Equal(t, StateUnauthenticated, states[1])
		assert.Nil(t, sessions[1])
	}
}

func TestObserverUnregisteredHandlerStops(t *testing.T) {
	o := NewObserver()

	calls := 0
	unregister := o.OnChange(func(State, *Session) {
		calls++
	})

	o.Notify(&Session{UserID: uuid.New()})
	unregister()
	o.Notify(nil)

	assert.Equal(t, 1, calls)
}
