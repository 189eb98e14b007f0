package history

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/navstack-dev/navstack/pkg/backstack"
	"github.com/navstack-dev/navstack/pkg/observe"
)

const chronologicalStrategy = "chronological"

// ChronologicalConfig configures a chronological synchronizer for
// destinations of type D.
type ChronologicalConfig[D any] struct {
	// Stack is the application back stack to mirror. Required.
	Stack *backstack.Stack[D]

	// Save encodes a destination as a URL fragment. Returning false marks
	// the destination as skippable (transient or sensitive screens are
	// simply left out of the mirrored history). Required.
	Save func(D) (string, bool)

	// Restore decodes a URL fragment back into a destination. An error
	// aborts the restoration attempt; the stack is left unchanged. Required.
	Restore func(string) (D, error)

	// Port is the browser history to mirror into. Required.
	Port Port

	// Logger receives diagnostics. Default: slog.Default().
	Logger *slog.Logger

	// Guard enforces single-consumer access. Default: DefaultGuard.
	Guard *Guard

	// Metrics records synchronizer activity. Optional.
	Metrics *Metrics

	// Tracer traces navigation events. Default: the global provider's
	// "navstack" tracer.
	Tracer trace.Tracer
}

// Chronological mirrors the entire application back stack into the browser
// history as a chain of entries, one per stack element. The history entry
// state is the stack serialized as newline-joined fragments, so a reload or
// back-forward navigation can rebuild the whole stack from whatever the
// browser retained.
type Chronological[D any] struct {
	cfg    ChronologicalConfig[D]
	logger *slog.Logger
	guard  *Guard
	tracer trace.Tracer
}

// NewChronological creates a chronological synchronizer. It does not touch
// the port until Run.
func NewChronological[D any](cfg ChronologicalConfig[D]) *Chronological[D] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	guard := cfg.Guard
	if guard == nil {
		guard = DefaultGuard
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("navstack")
	}
	return &Chronological[D]{cfg: cfg, logger: logger, guard: guard, tracer: tracer}
}

// Run binds the synchronizer and processes events until ctx is cancelled or
// the port's event stream ends. It returns ErrAlreadyBound, without
// touching browser history or the stack, when another synchronizer already
// owns the history. The guard is not released on return.
//
// All port access happens on this goroutine: browser events and stack
// snapshots interleave through one serial loop, so each browser-originated
// event and each application-originated change triggers at most one
// history write.
func (c *Chronological[D]) Run(ctx context.Context) error {
	if !c.guard.TryAcquire() {
		c.logger.Warn("history already bound to another consumer")
		c.cfg.Metrics.RecordBindRejected()
		return ErrAlreadyBound
	}

	snapshots, unsub := observe.Conflate[[]D](c.cfg.Stack)
	defer unsub()

	// Synthesize one initial event from the current entry so a page load
	// or first bind restores from whatever is already there.
	c.handleNavigation(ctx, NavigationEvent{State: c.cfg.Port.State()})

	events := c.cfg.Port.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.handleNavigation(ctx, ev)
		case snap := <-snapshots:
			c.syncStack(snap)
		}
	}
}

// handleNavigation applies one browser navigation event to the back stack.
// It never writes to the port.
func (c *Chronological[D]) handleNavigation(ctx context.Context, ev NavigationEvent) {
	c.cfg.Metrics.RecordEvent(chronologicalStrategy)

	_, span := c.tracer.Start(ctx, "navstack.navigation_event",
		trace.WithAttributes(
			attribute.String("navstack.strategy", chronologicalStrategy),
			attribute.Bool("navstack.state_present", ev.State.Present),
		))
	defer span.End()

	if !ev.State.Present {
		// Fresh load or a foreign entry: try the address bar.
		frag := c.cfg.Port.Fragment()
		d, err := c.cfg.Restore(frag)
		if err != nil {
			c.logger.Warn("cannot restore destination from URL",
				"fragment", frag, "error", err)
			c.cfg.Metrics.RecordRestoreFailure()
			span.SetStatus(codes.Error, err.Error())
			return
		}
		c.cfg.Stack.Push(d)
		return
	}

	// All-or-nothing: a single undecodable line aborts the whole
	// restoration and leaves the stack untouched.
	lines := strings.Split(ev.State.Value, "\n")
	dests := make([]D, 0, len(lines))
	for _, line := range lines {
		d, err := c.cfg.Restore(line)
		if err != nil {
			c.logger.Warn("cannot restore back stack from history state",
				"state", ev.State.Value, "fragment", line, "error", err)
			c.cfg.Metrics.RecordRestoreFailure()
			span.SetStatus(codes.Error, err.Error())
			return
		}
		dests = append(dests, d)
	}
	c.cfg.Stack.ReplaceAll(dests)
	span.SetAttributes(attribute.Int("navstack.restored", len(dests)))
}

// syncStack mirrors one stack snapshot into the browser history. The only
// available signal for push-vs-replace is whether the current entry state
// already equals what we are about to write: the browser's own Back/Forward
// updates the state before our stack subscription fires, so equality means
// the mutation is an echo of a browser-originated pop (or the page just
// loaded) and must not grow the chain.
func (c *Chronological[D]) syncStack(snap []D) {
	frags := make([]string, 0, len(snap))
	for _, d := range snap {
		frag, ok := c.cfg.Save(d)
		if !ok {
			continue
		}
		frags = append(frags, frag)
	}
	if len(frags) == 0 {
		return
	}

	newState := strings.Join(frags, "\n")
	url := c.cfg.Port.OriginAndPath() + frags[len(frags)-1]

	cur := c.cfg.Port.State()
	if !cur.Present || cur.Value == newState {
		c.cfg.Port.ReplaceState(StateOf(newState), url)
		c.cfg.Metrics.RecordReplace()
		return
	}
	c.cfg.Port.PushState(StateOf(newState), url)
	c.cfg.Metrics.RecordPush()
}
