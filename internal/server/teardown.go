package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/userhub/backend/internal/session"
)

// watchCanceller is the slice of ProfileWatcher the teardown handler uses
type watchCanceller interface {
	CancelAll(profileID uuid.UUID)
}

// watchTeardown returns the observer handler that cancels a user's open
// watches when their session ends. The observer hands the handler only the
// new (nil) session and runs handlers on whichever request goroutine
// triggered the change, so the previous session is tracked under a lock.
func watchTeardown(watcher watchCanceller) session.Handler {
	var mu sync.Mutex
	var last *session.Session

	return func(_ session.State, s *session.Session) {
		mu.Lock()
		prev := last
		last = s
		mu.Unlock()

		if s == nil && prev != nil {
			watcher.CancelAll(prev.UserID)
		}
	}
}
