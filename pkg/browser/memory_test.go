package browser

import (
	"testing"
	"time"

	"github.com/navstack-dev/navstack/pkg/history"
)

const testOrigin = "https://app.example/demo"

func recvEvent(t *testing.T, m *Memory) history.NavigationEvent {
	t.Helper()
	select {
	case ev, ok := <-m.Events():
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for navigation event")
		return history.NavigationEvent{}
	}
}

func expectNoEvent(t *testing.T, m *Memory) {
	t.Helper()
	select {
	case ev := <-m.Events():
		t.Fatalf("unexpected navigation event %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestMemoryInitialEntry(t *testing.T) {
	m := NewMemory(testOrigin)

	if m.Depth() != 1 || m.Index() != 0 {
		t.Fatalf("depth = %d, index = %d", m.Depth(), m.Index())
	}
	if m.State().Present {
		t.Error("initial entry should carry no state")
	}
	if got := m.Fragment(); got != "" {
		t.Errorf("fragment = %q, want empty", got)
	}
	if got := m.OriginAndPath(); got != testOrigin {
		t.Errorf("origin = %q", got)
	}
}

func TestMemoryPushAndReplace(t *testing.T) {
	m := NewMemory(testOrigin)

	m.PushState(history.StateOf("a"), testOrigin+"#a")
	m.PushState(history.StateOf("b"), testOrigin+"#b")
	if m.Depth() != 3 || m.Index() != 2 {
		t.Fatalf("depth = %d, index = %d", m.Depth(), m.Index())
	}
	if got := m.Fragment(); got != "#b" {
		t.Errorf("fragment = %q, want #b", got)
	}

	m.ReplaceState(history.StateOf("b2"), testOrigin+"#b2")
	if m.Depth() != 3 {
		t.Errorf("depth = %d, replace must not grow history", m.Depth())
	}
	if m.State() != history.StateOf("b2") {
		t.Errorf("state = %v", m.State())
	}

	// Neither push nor replace emits an event.
	expectNoEvent(t, m)
}

func TestMemoryPushTruncatesForwardEntries(t *testing.T) {
	m := NewMemory(testOrigin)

	m.PushState(history.StateOf("a"), testOrigin+"#a")
	m.PushState(history.StateOf("b"), testOrigin+"#b")
	m.Back()
	recvEvent(t, m)

	m.PushState(history.StateOf("c"), testOrigin+"#c")
	if m.Depth() != 3 {
		t.Errorf("depth = %d, want 3 (forward entry dropped)", m.Depth())
	}
	m.Forward() // nothing ahead
	expectNoEvent(t, m)
	if m.State() != history.StateOf("c") {
		t.Errorf("state = %v, want c", m.State())
	}
}

func TestMemoryGoEmitsTargetState(t *testing.T) {
	m := NewMemory(testOrigin)
	m.PushState(history.StateOf("a"), testOrigin+"#a")
	m.PushState(history.StateOf("b"), testOrigin+"#b")

	m.Go(-2)
	ev := recvEvent(t, m)
	if ev.State.Present {
		t.Errorf("event state = %v, want absent (initial entry)", ev.State)
	}
	if m.Index() != 0 {
		t.Errorf("index = %d, want 0", m.Index())
	}

	m.Go(1)
	if ev := recvEvent(t, m); ev.State != history.StateOf("a") {
		t.Errorf("event state = %v, want a", ev.State)
	}
}

func TestMemoryGoClampsAndZeroIsSilent(t *testing.T) {
	m := NewMemory(testOrigin)
	m.PushState(history.StateOf("a"), testOrigin+"#a")

	m.Go(0)
	expectNoEvent(t, m)

	m.Go(-5)
	if ev := recvEvent(t, m); ev.State.Present {
		t.Errorf("event state = %v, want absent", ev.State)
	}
	if m.Index() != 0 {
		t.Errorf("index = %d, want 0", m.Index())
	}

	m.Go(10)
	if ev := recvEvent(t, m); ev.State != history.StateOf("a") {
		t.Errorf("event state = %v, want a", ev.State)
	}
	if m.Index() != 1 {
		t.Errorf("index = %d, want 1", m.Index())
	}
}

func TestMemorySetFragment(t *testing.T) {
	m := NewMemory(testOrigin)
	m.PushState(history.StateOf("a"), testOrigin+"#a")

	m.SetFragment("#typed?q=1")
	ev := recvEvent(t, m)
	if ev.State.Present {
		t.Errorf("event state = %v, want absent", ev.State)
	}
	if got := m.Fragment(); got != "#typed?q=1" {
		t.Errorf("fragment = %q", got)
	}
	if m.Depth() != 3 {
		t.Errorf("depth = %d, want 3", m.Depth())
	}
}

func TestMemoryClose(t *testing.T) {
	m := NewMemory(testOrigin)
	m.PushState(history.StateOf("a"), testOrigin+"#a")
	m.Close()

	if _, ok := <-m.Events(); ok {
		t.Error("events should be closed")
	}

	// Ignored after close, and must not panic on the closed channel.
	m.Back()
	m.SetFragment("#x")
	m.Close()
}
