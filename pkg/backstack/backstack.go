// Package backstack holds the application-side navigation state that the
// history synchronizers observe: an ordered back stack of destinations and,
// for the hierarchical strategy, a journal tracking in-app navigation depth.
//
// Both types are owned and mutated by the hosting UI layer. Synchronizers
// only read them and subscribe to their changes.
package backstack

import (
	"sync"

	"github.com/navstack-dev/navstack/pkg/observe"
)

// Stack is a reactive ordered sequence of destinations. The last element is
// the current (topmost) destination. Subscribers receive a full snapshot
// after every content change.
type Stack[D any] struct {
	mu    sync.RWMutex
	items []D
	subs  observe.Value[[]D]
}

// NewStack creates an empty stack.
func NewStack[D any]() *Stack[D] {
	return &Stack[D]{}
}

// Push appends a destination, making it current.
func (s *Stack[D]) Push(d D) {
	s.mu.Lock()
	s.items = append(s.items, d)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.subs.Set(snap)
}

// PushAll appends destinations in order.
func (s *Stack[D]) PushAll(ds []D) {
	if len(ds) == 0 {
		return
	}
	s.mu.Lock()
	s.items = append(s.items, ds...)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.subs.Set(snap)
}

// Pop removes and returns the current destination. The second return is
// false when the stack is empty.
func (s *Stack[D]) Pop() (D, bool) {
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		var zero D
		return zero, false
	}
	d := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.subs.Set(snap)
	return d, true
}

// Clear removes all destinations.
func (s *Stack[D]) Clear() {
	s.mu.Lock()
	s.items = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.subs.Set(snap)
}

// ReplaceAll atomically replaces the entire content with ds, preserving
// order. This is the restore path: observers see a single change.
func (s *Stack[D]) ReplaceAll(ds []D) {
	s.mu.Lock()
	s.items = append([]D(nil), ds...)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.subs.Set(snap)
}

// Snapshot returns a copy of the current content.
func (s *Stack[D]) Snapshot() []D {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len returns the number of destinations.
func (s *Stack[D]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Current returns the topmost destination. The second return is false when
// the stack is empty.
func (s *Stack[D]) Current() (D, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.items) == 0 {
		var zero D
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// Subscribe registers fn to receive a snapshot after each content change.
// Snapshots are conflatable: consumers using observe.Conflate may skip
// intermediate states.
func (s *Stack[D]) Subscribe(fn func([]D)) observe.Unsubscribe {
	return s.subs.Subscribe(fn)
}

func (s *Stack[D]) snapshotLocked() []D {
	snap := make([]D, len(s.items))
	copy(snap, s.items)
	return snap
}

// Journal tracks in-app navigation depth for the hierarchical strategy.
// The UI layer advances it on every screen push and rewinds it on every
// pop; the synchronizer reads the index and subscribes to its changes.
type Journal struct {
	index observe.Value[int]
}

// NewJournal creates a journal at depth zero.
func NewJournal() *Journal {
	return &Journal{}
}

// CurrentIndex returns the current navigation depth.
func (j *Journal) CurrentIndex() int {
	return j.index.Get()
}

// Advance records one in-app navigation step.
func (j *Journal) Advance() {
	j.index.Update(func(i int) int { return i + 1 })
}

// Rewind records one back step. The index never goes below zero.
func (j *Journal) Rewind() {
	j.index.Update(func(i int) int {
		if i == 0 {
			return 0
		}
		return i - 1
	})
}

// Subscribe registers fn to receive the depth after each change. The
// current depth is not replayed on subscription, so the initial value never
// reaches a new subscriber.
func (j *Journal) Subscribe(fn func(int)) observe.Unsubscribe {
	return j.index.Subscribe(fn)
}
