package browser

import (
	"strings"
	"sync"

	"github.com/navstack-dev/navstack/pkg/history"
)

// memoryEventBuffer bounds the pending navigation events of a Memory.
// Go may be called from inside a synchronizer's event loop, so delivery
// must not block the caller.
const memoryEventBuffer = 16

type memoryEntry struct {
	state history.EntryState
	url   string
}

// Memory is an in-memory browser history implementing history.Port. It
// models the session-history list a real browser keeps: an entry list, a
// current index, push/replace on the current slot, and navigation events
// for every Back/Forward/address-bar move. Pushing truncates any forward
// entries, exactly like a browser.
type Memory struct {
	mu      sync.Mutex
	origin  string
	entries []memoryEntry
	index   int
	events  chan history.NavigationEvent
	closed  bool
}

// NewMemory creates a history with a single stateless entry at the given
// origin-and-path.
func NewMemory(originAndPath string) *Memory {
	return &Memory{
		origin:  originAndPath,
		entries: []memoryEntry{{state: history.NoState, url: originAndPath}},
		events:  make(chan history.NavigationEvent, memoryEventBuffer),
	}
}

// Fragment returns the fragment-and-query portion of the current URL,
// including the leading "#", or "" when the URL has no fragment.
func (m *Memory) Fragment() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	url := m.entries[m.index].url
	if i := strings.Index(url, "#"); i >= 0 {
		return url[i:]
	}
	return ""
}

// OriginAndPath returns the URL up to (excluding) the fragment.
func (m *Memory) OriginAndPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.origin
}

// State returns the current entry's value.
func (m *Memory) State() history.EntryState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index].state
}

// ReplaceState overwrites the current entry. No event is emitted, matching
// a real browser's replaceState.
func (m *Memory) ReplaceState(state history.EntryState, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.index] = memoryEntry{state: state, url: url}
}

// PushState appends a new entry after the current one, dropping any forward
// entries. No event is emitted, matching a real browser's pushState.
func (m *Memory) PushState(state history.EntryState, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries[:m.index+1], memoryEntry{state: state, url: url})
	m.index++
}

// Go moves by delta entries and emits a navigation event carrying the
// target entry's state. Out-of-range moves are clamped; a move of zero
// emits nothing.
func (m *Memory) Go(delta int) {
	m.mu.Lock()
	target := m.index + delta
	if target < 0 {
		target = 0
	}
	if target > len(m.entries)-1 {
		target = len(m.entries) - 1
	}
	if target == m.index || m.closed {
		m.mu.Unlock()
		return
	}
	m.index = target
	st := m.entries[m.index].state
	m.mu.Unlock()

	m.events <- history.NavigationEvent{State: st}
}

// Back is shorthand for Go(-1).
func (m *Memory) Back() { m.Go(-1) }

// Forward is shorthand for Go(1).
func (m *Memory) Forward() { m.Go(1) }

// SetFragment simulates the user editing the address bar fragment: a new
// stateless entry is pushed and a navigation event with absent state is
// emitted.
func (m *Memory) SetFragment(frag string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.entries = append(m.entries[:m.index+1],
		memoryEntry{state: history.NoState, url: m.origin + frag})
	m.index++
	m.mu.Unlock()

	m.events <- history.NavigationEvent{State: history.NoState}
}

// Events returns the navigation event stream.
func (m *Memory) Events() <-chan history.NavigationEvent {
	return m.events
}

// Close ends the event stream. Further Go/SetFragment calls are ignored.
func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.events)
}

// Depth returns the number of history entries.
func (m *Memory) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Index returns the position of the current entry.
func (m *Memory) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// CurrentURL returns the current entry's full URL.
func (m *Memory) CurrentURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index].url
}
