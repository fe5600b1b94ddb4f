package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/pubsub"
)

// ProfileSnapshot is one emission of a profile watch. Exactly one of the
// cases holds: a profile, no profile (document absent), or an error. On an
// error the last known profile is carried along so consumers keep showing
// it instead of clearing their view.
type ProfileSnapshot struct {
	Profile *models.UserProfile
	Err     error
}

// Watch is a live, revocable view of one profile document. After Cancel
// returns, Snapshots emits nothing further and is eventually closed. A
// consumer that falls behind loses intermediate snapshots, never the
// latest one.
type Watch struct {
	mu       sync.Mutex
	ch       chan ProfileSnapshot
	closed   bool
	sub      *pubsub.Subscription
	onCancel func(*Watch)
}

// Snapshots returns the channel the watch emits on
func (w *Watch) Snapshots() <-chan ProfileSnapshot {
	return w.ch
}

// Cancel tears the watch down. Safe to call more than once and from any
// goroutine; emissions stop before Cancel returns.
func (w *Watch) Cancel() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.ch)
	w.mu.Unlock()

	w.sub.Cancel()
	if w.onCancel != nil {
		w.onCancel(w)
	}
}

// emit queues a snapshot for the consumer. When the consumer has fallen a
// full buffer behind, the oldest queued snapshot is evicted: snapshots are
// whole states, not deltas, so the newest one always lands and a slow
// consumer still ends on the final state.
func (w *Watch) emit(snap ProfileSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	for {
		select {
		case w.ch <- snap:
			return
		default:
		}
		select {
		case <-w.ch:
		default:
		}
	}
}

// profileGetter is the slice of ProfileService a watch needs
type profileGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
}

// ProfileWatcher opens live watches on profile documents. It keeps a
// registry of open watches per profile id so they can all be torn down
// when the owning session ends.
type ProfileWatcher struct {
	profiles profileGetter
	broker   pubsub.Broker

	mu      sync.Mutex
	watches map[uuid.UUID]map[*Watch]struct{}
}

// NewProfileWatcher creates a new ProfileWatcher instance
func NewProfileWatcher(profiles profileGetter, broker pubsub.Broker) *ProfileWatcher {
	return &ProfileWatcher{
		profiles: profiles,
		broker:   broker,
		watches:  make(map[uuid.UUID]map[*Watch]struct{}),
	}
}

// Watch opens a live view of the given profile document. The first
// snapshot is emitted immediately from a point read: the profile if the
// document exists, a "no profile" snapshot if it does not. Each change
// event triggers a re-read and a fresh snapshot. The watch is cancelled
// when ctx is done.
func (pw *ProfileWatcher) Watch(ctx context.Context, profileID uuid.UUID) *Watch {
	w := &Watch{
		ch:  make(chan ProfileSnapshot, 8),
		sub: pw.broker.Subscribe(profileID),
		onCancel: func(w *Watch) {
			pw.mu.Lock()
			defer pw.mu.Unlock()
			if set, ok := pw.watches[profileID]; ok {
				delete(set, w)
				if len(set) == 0 {
					delete(pw.watches, profileID)
				}
			}
		},
	}

	pw.mu.Lock()
	if pw.watches[profileID] == nil {
		pw.watches[profileID] = make(map[*Watch]struct{})
	}
	pw.watches[profileID][w] = struct{}{}
	pw.mu.Unlock()

	go func() {
		<-ctx.Done()
		w.Cancel()
	}()

	go pw.run(ctx, profileID, w)
	return w
}

// CancelAll tears down every open watch on the given profile id. Wired to
// the session observer: when a session ends, its watches go with it.
func (pw *ProfileWatcher) CancelAll(profileID uuid.UUID) {
	pw.mu.Lock()
	targets := make([]*Watch, 0, len(pw.watches[profileID]))
	for w := range pw.watches[profileID] {
		targets = append(targets, w)
	}
	pw.mu.Unlock()

	for _, w := range targets {
		w.Cancel()
	}
}

func (pw *ProfileWatcher) run(ctx context.Context, profileID uuid.UUID, w *Watch) {
	var last *models.UserProfile

	read := func() ProfileSnapshot {
		profile, err := pw.profiles.Get(ctx, profileID)
		switch {
		case err == nil:
			last = profile
			return ProfileSnapshot{Profile: profile}
		case errors.Is(err, ErrProfileNotFound):
			// Absent document is not an error.
			last = nil
			return ProfileSnapshot{}
		default:
			return ProfileSnapshot{Profile: last, Err: err}
		}
	}

	w.emit(read())

	for ev := range w.sub.Events() {
		if ev.Kind == pubsub.EventDeleted {
			last = nil
			w.emit(ProfileSnapshot{})
			continue
		}
		w.emit(read())
	}
}
