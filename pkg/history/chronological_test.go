package history_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/navstack-dev/navstack/pkg/backstack"
	"github.com/navstack-dev/navstack/pkg/browser"
	"github.com/navstack-dev/navstack/pkg/fragment"
	"github.com/navstack-dev/navstack/pkg/history"
)

const testOrigin = "https://app.example/demo"

// dest is the test destination type: a bare screen name. Names starting
// with "secret" are skippable; Restore only accepts names the codec parses.
func saveDest(d string) (string, bool) {
	if strings.HasPrefix(d, "secret") {
		return "", false
	}
	return fragment.Encode(d, nil), true
}

func restoreDest(frag string) (string, error) {
	name, err := fragment.DecodeName(frag)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(name, "bad") {
		return "", fmt.Errorf("unknown destination %q", name)
	}
	return name, nil
}

type chronoFixture struct {
	mem    *browser.Memory
	stack  *backstack.Stack[string]
	guard  *history.Guard
	cancel context.CancelFunc
	done   chan error
}

func startChronological(t *testing.T, mem *browser.Memory) *chronoFixture {
	return startChronologicalWith(t, mem, nil)
}

func startChronologicalWith(t *testing.T, mem *browser.Memory, metrics *history.Metrics) *chronoFixture {
	t.Helper()

	f := &chronoFixture{
		mem:   mem,
		stack: backstack.NewStack[string](),
		guard: &history.Guard{},
		done:  make(chan error, 1),
	}

	syncer := history.NewChronological(history.ChronologicalConfig[string]{
		Stack:   f.stack,
		Save:    saveDest,
		Restore: restoreDest,
		Port:    mem,
		Guard:   f.guard,
		Metrics: metrics,
	})

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go func() { f.done <- syncer.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-f.done:
		case <-time.After(2 * time.Second):
			t.Error("synchronizer did not stop")
		}
	})
	return f
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestChronologicalMirrorsStack(t *testing.T) {
	mem := browser.NewMemory(testOrigin)
	f := startChronological(t, mem)

	// First push lands on the initial stateless entry via replace.
	f.stack.Push("home")
	waitFor(t, "first entry", func() bool {
		return mem.State() == history.StateOf("#home")
	})
	if mem.Depth() != 1 {
		t.Errorf("depth = %d, want 1 (replace, not push)", mem.Depth())
	}

	// App-originated pushes grow the chain.
	f.stack.Push("profile")
	waitFor(t, "second entry", func() bool {
		return mem.State() == history.StateOf("#home\n#profile")
	})
	f.stack.Push("settings")
	waitFor(t, "third entry", func() bool {
		return mem.State() == history.StateOf("#home\n#profile\n#settings")
	})

	if mem.Depth() != 3 {
		t.Errorf("depth = %d, want 3", mem.Depth())
	}
	if got := mem.CurrentURL(); got != testOrigin+"#settings" {
		t.Errorf("url = %q, want %q", got, testOrigin+"#settings")
	}
}

func TestChronologicalBrowserBack(t *testing.T) {
	mem := browser.NewMemory(testOrigin)
	f := startChronological(t, mem)

	f.stack.Push("home")
	waitFor(t, "first entry", func() bool { return mem.State() == history.StateOf("#home") })
	f.stack.Push("profile")
	waitFor(t, "second entry", func() bool {
		return mem.State() == history.StateOf("#home\n#profile")
	})

	mem.Back()
	waitFor(t, "stack popped", func() bool {
		return cmp.Equal(f.stack.Snapshot(), []string{"home"})
	})

	// The echo of the browser-originated pop must replace, not push:
	// history depth is unchanged and the forward entry survives.
	waitFor(t, "echo settled", func() bool { return mem.State() == history.StateOf("#home") })
	if mem.Depth() != 2 {
		t.Errorf("depth = %d, want 2 after back", mem.Depth())
	}

	// Let the echo replace drain before navigating again; overlapping a
	// Forward with a pending echo would interleave like no real browser.
	time.Sleep(50 * time.Millisecond)

	mem.Forward()
	waitFor(t, "stack restored", func() bool {
		return cmp.Equal(f.stack.Snapshot(), []string{"home", "profile"})
	})
}

func TestChronologicalRestoreFromState(t *testing.T) {
	mem := browser.NewMemory(testOrigin)
	mem.ReplaceState(history.StateOf("#home\n#profile\n#settings"), testOrigin+"#settings")

	f := startChronological(t, mem)

	// The synthesized initial event restores the whole stack in order.
	waitFor(t, "stack restored", func() bool {
		return cmp.Equal(f.stack.Snapshot(), []string{"home", "profile", "settings"})
	})
}

func TestChronologicalRestoreAllOrNothing(t *testing.T) {
	mem := browser.NewMemory(testOrigin)
	mem.ReplaceState(history.StateOf("#home\n#bad\n#settings"), testOrigin+"#settings")

	f := startChronological(t, mem)
	f.stack.ReplaceAll([]string{"existing"})

	// The middle line fails to decode: the whole restoration is aborted
	// and the prior content survives. Push a follow-up marker so we know
	// the loop has processed past the initial event.
	f.stack.Push("marker")
	waitFor(t, "marker processed", func() bool {
		return strings.Contains(mem.State().Value, "#marker")
	})

	if got := f.stack.Snapshot(); !cmp.Equal(got, []string{"existing", "marker"}) {
		t.Errorf("stack = %v, want partial restore rejected", got)
	}
}

func TestChronologicalRestoreFromURL(t *testing.T) {
	mem := browser.NewMemory(testOrigin)
	f := startChronological(t, mem)

	// A manual address edit carries no state: the fragment is decoded and
	// appended.
	mem.SetFragment("#profile")
	waitFor(t, "destination appended", func() bool {
		return cmp.Equal(f.stack.Snapshot(), []string{"profile"})
	})
}

func TestChronologicalUndecodableURLIsDropped(t *testing.T) {
	mem := browser.NewMemory(testOrigin)
	reg := prometheus.NewRegistry()
	f := startChronologicalWith(t, mem, history.NewMetrics(history.WithRegistry(reg)))

	// The initial synthesized event fails too (empty fragment), so the
	// address-bar edit is the second recorded failure.
	mem.SetFragment("#bad")
	waitFor(t, "failures recorded", func() bool {
		return counterValue(t, reg, "navstack_history_restore_failures_total") >= 2
	})

	// No stack mutation; the address bar is left as the user typed it.
	if got := f.stack.Len(); got != 0 {
		t.Errorf("stack len = %d, want 0", got)
	}
	if got := mem.Fragment(); got != "#bad" {
		t.Errorf("fragment = %q, want %q", got, "#bad")
	}
}

// counterValue reads a counter from a private registry by fully qualified
// name, summing across label combinations.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var sum float64
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
		return sum
	}
	return 0
}

func TestChronologicalSkippableDestinations(t *testing.T) {
	mem := browser.NewMemory(testOrigin)
	f := startChronological(t, mem)

	f.stack.PushAll([]string{"home", "secret-checkout", "done"})
	waitFor(t, "state written", func() bool {
		return mem.State() == history.StateOf("#home\n#done")
	})
}

func TestChronologicalAllSkippableIsNoop(t *testing.T) {
	mem := browser.NewMemory(testOrigin)
	f := startChronological(t, mem)

	f.stack.Push("secret-one")
	f.stack.Push("visible")
	waitFor(t, "visible state", func() bool {
		return mem.State() == history.StateOf("#visible")
	})
	// The all-skippable snapshot wrote nothing: only one entry exists.
	if mem.Depth() != 1 {
		t.Errorf("depth = %d, want 1", mem.Depth())
	}
}

func TestChronologicalSecondBindRejected(t *testing.T) {
	mem := browser.NewMemory(testOrigin)
	f := startChronological(t, mem)

	second := history.NewChronological(history.ChronologicalConfig[string]{
		Stack:   backstack.NewStack[string](),
		Save:    saveDest,
		Restore: restoreDest,
		Port:    mem,
		Guard:   f.guard,
	})

	err := second.Run(context.Background())
	if !errors.Is(err, history.ErrAlreadyBound) {
		t.Fatalf("Run = %v, want ErrAlreadyBound", err)
	}
}
