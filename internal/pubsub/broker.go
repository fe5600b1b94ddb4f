// Package pubsub fans profile document change events out to live
// subscribers. The in-memory broker serves a single instance; the Redis
// broker carries the same events across instances.
package pubsub

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// EventKind classifies a profile change
type EventKind string

const (
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event describes a change to one profile document
type Event struct {
	ProfileID uuid.UUID `json:"profile_id"`
	Kind      EventKind `json:"kind"`
}

// Broker publishes profile change events and hands out revocable
// subscriptions bound to a single profile id.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(profileID uuid.UUID) *Subscription
	Close() error
}

const subscriptionBuffer = 16

// Subscription is a live, revocable feed of change events for one profile.
// After Cancel returns, no further events are delivered.
type Subscription struct {
	mu       sync.Mutex
	ch       chan Event
	closed   bool
	onCancel func(*Subscription)
}

func newSubscription(onCancel func(*Subscription)) *Subscription {
	return &Subscription{
		ch:       make(chan Event, subscriptionBuffer),
		onCancel: onCancel,
	}
}

// Events returns the channel the subscription delivers on. The channel is
// closed by Cancel.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Cancel revokes the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	if s.onCancel != nil {
		s.onCancel(s)
	}
}

// deliver hands an event to the subscriber. Events are dropped when the
// subscriber falls more than subscriptionBuffer events behind; a profile
// watch recovers by re-reading the document on the next emission.
func (s *Subscription) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
	}
}

// MemoryBroker is an in-process Broker implementation
type MemoryBroker struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[*Subscription]struct{}
}

// NewMemoryBroker creates an in-process broker
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subs: make(map[uuid.UUID]map[*Subscription]struct{}),
	}
}

// Publish delivers the event to every subscription open on its profile id
func (b *MemoryBroker) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	targets := make([]*Subscription, 0, len(b.subs[ev.ProfileID]))
	for sub := range b.subs[ev.ProfileID] {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		sub.deliver(ev)
	}
	return nil
}

// Subscribe opens a subscription for the given profile id
func (b *MemoryBroker) Subscribe(profileID uuid.UUID) *Subscription {
	var sub *Subscription
	sub = newSubscription(func(s *Subscription) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[profileID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(b.subs, profileID)
			}
		}
	})

	b.mu.Lock()
	if b.subs[profileID] == nil {
		b.subs[profileID] = make(map[*Subscription]struct{})
	}
	b.subs[profileID][sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Close cancels every open subscription
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	all := make([]*Subscription, 0)
	for _, set := range b.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range all {
		sub.Cancel()
	}
	return nil
}
