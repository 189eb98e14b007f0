// Package observe provides the small subscription primitives the history
// synchronizers consume. A Source delivers change notifications to
// subscribers; Conflate turns a Source into a channel with latest-wins
// delivery so a busy consumer only ever sees the most recent snapshot.
package observe

import (
	"reflect"
	"sync"
)

// Unsubscribe cancels a subscription. Calling it more than once is safe.
type Unsubscribe func()

// Source is anything that can be observed for changes. Subscribers receive
// the new value after each change; the current value is not replayed on
// subscription.
type Source[T any] interface {
	Subscribe(fn func(T)) Unsubscribe
}

// subscribers manages a subscriber list. Notification copies the list
// before invoking callbacks so subscribers may unsubscribe from within
// their own callback.
type subscribers[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]func(T)
}

func (s *subscribers[T]) add(fn func(T)) Unsubscribe {
	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[uint64]func(T))
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *subscribers[T]) notify(v T) {
	s.mu.RLock()
	fns := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Value is a reactive value container. Set notifies subscribers only when
// the value actually changed, using == for comparable kinds and
// reflect.DeepEqual otherwise.
type Value[T any] struct {
	mu    sync.RWMutex
	value T
	subs  subscribers[T]
	equal func(T, T) bool
}

// NewValue creates a reactive value with the given initial content.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{value: initial}
}

// WithEquals configures a custom equality function, for types where
// reflect.DeepEqual is too expensive or has the wrong semantics.
func (v *Value[T]) WithEquals(fn func(T, T) bool) *Value[T] {
	v.equal = fn
	return v
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set replaces the value and notifies subscribers if it changed.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	changed := !v.equals(v.value, value)
	if changed {
		v.value = value
	}
	v.mu.Unlock()

	if changed {
		v.subs.notify(value)
	}
}

// Update atomically reads and replaces the value.
func (v *Value[T]) Update(fn func(T) T) {
	v.mu.Lock()
	next := fn(v.value)
	changed := !v.equals(v.value, next)
	if changed {
		v.value = next
	}
	v.mu.Unlock()

	if changed {
		v.subs.notify(next)
	}
}

// Subscribe registers fn to run after each change.
func (v *Value[T]) Subscribe(fn func(T)) Unsubscribe {
	return v.subs.add(fn)
}

func (v *Value[T]) equals(a, b T) bool {
	if v.equal != nil {
		return v.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for common comparable types and falls back to
// reflect.DeepEqual for slices, maps and structs.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int64:
		return av == any(b).(int64)
	case uint64:
		return av == any(b).(uint64)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// Conflate subscribes to src and returns a channel carrying its values with
// latest-wins semantics: the channel buffers exactly one value, and a newer
// value displaces an undelivered older one. Intermediate values are not
// guaranteed to be delivered.
//
// The returned Unsubscribe detaches from src; the channel is not closed, so
// consumers should select against their own done signal.
func Conflate[T any](src Source[T]) (<-chan T, Unsubscribe) {
	ch := make(chan T, 1)
	unsub := src.Subscribe(func(v T) {
		for {
			select {
			case ch <- v:
				return
			default:
			}
			// Buffer full: displace the stale value and retry.
			select {
			case <-ch:
			default:
			}
		}
	})
	return ch, unsub
}
