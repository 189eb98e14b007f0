package history

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/navstack-dev/navstack/pkg/backstack"
	"github.com/navstack-dev/navstack/pkg/observe"
)

const hierarchicalStrategy = "hierarchical"

// Sentinel entry states for the hierarchical strategy. Instead of real
// navigation data, the two-slot browser history carries one of these
// markers so the synchronizer can tell which physical slot an event landed
// on.
const (
	// RootEntry marks the bottom slot: no in-app navigation depth has been
	// pushed into browser history yet.
	RootEntry = "ROOT_ENTRY"

	// CurrentEntry marks the top slot: one logical back-step is available.
	CurrentEntry = "CURRENT_ENTRY"
)

// HierarchicalConfig configures a hierarchical synchronizer.
type HierarchicalConfig struct {
	// CurrentFragment returns the fragment for the currently shown
	// destination, or false when there is none. Used to keep the address
	// bar meaningful while the entry states stay sentinels. Required.
	CurrentFragment func() (string, bool)

	// Journal is the navigation-event history whose depth changes as the
	// UI layer pushes and pops screens. Required.
	Journal *backstack.Journal

	// OnBack is invoked once per logical back-step the user takes via the
	// browser. Required.
	OnBack func()

	// Port is the browser history to manage. Required.
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

// Hierarchical keeps the browser history at most two entries deep
// regardless of in-app stack depth and translates browser Back into OnBack
// calls.
//
// The dance around RootEntry exists because of browser quirks: history must
// never be mutated twice in a row, nor from inside the handler of an event
// that mutation produced. When Back lands on the root slot while the app
// still has depth to pop, the synchronizer issues a single Go(+1) and waits
// for the resulting CurrentEntry event before firing OnBack, so every
// observed event triggers at most one mutation and the inbound and
// outbound paths never both write for the same physical action.
type Hierarchical struct {
	cfg    HierarchicalConfig
	logger *slog.Logger
	guard  *Guard
	tracer trace.Tracer
}

// NewHierarchical creates a hierarchical synchronizer. It does not touch
// the port until Run.
func NewHierarchical(cfg HierarchicalConfig) *Hierarchical {
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
	return &Hierarchical{cfg: cfg, logger: logger, guard: guard, tracer: tracer}
}

// Run binds the synchronizer and processes events until ctx is cancelled or
// the port's event stream ends. It returns ErrAlreadyBound when another
// synchronizer already owns the history. The guard is not released on
// return.
//
// On a successful bind the current entry is immediately rewritten to the
// RootEntry sentinel. Journal subscriptions deliver change notifications
// only, so the journal's initial depth never produces a history write.
func (h *Hierarchical) Run(ctx context.Context) error {
	if !h.guard.TryAcquire() {
		h.logger.Warn("history already bound to another consumer")
		h.cfg.Metrics.RecordBindRejected()
		return ErrAlreadyBound
	}

	depths, unsub := observe.Conflate[int](h.cfg.Journal)
	defer unsub()

	h.cfg.Port.ReplaceState(StateOf(RootEntry), h.currentURL())
	h.cfg.Metrics.RecordReplace()

	events := h.cfg.Port.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			h.handleNavigation(ctx, ev)
		case <-depths:
			h.syncDepth()
		}
	}
}

// handleNavigation reacts to one browser navigation event. It issues at
// most one history mutation.
func (h *Hierarchical) handleNavigation(ctx context.Context, ev NavigationEvent) {
	h.cfg.Metrics.RecordEvent(hierarchicalStrategy)

	_, span := h.tracer.Start(ctx, "navstack.navigation_event",
		trace.WithAttributes(
			attribute.String("navstack.strategy", hierarchicalStrategy),
			attribute.String("navstack.entry", ev.State.Value),
		))
	defer span.End()

	if ev.State.Present && ev.State.Value == RootEntry {
		if h.cfg.Journal.CurrentIndex() > 0 {
			// Back landed on the root slot with depth left to pop.
			// Restore the top slot; the resulting event fires OnBack.
			h.logger.Debug("back reached root entry, restoring current entry")
			h.cfg.Port.Go(1)
			return
		}
		h.logger.Debug("back reached root entry with no in-app depth left")
		return
	}

	// CurrentEntry, or any state this synchronizer did not write: one
	// logical back-step.
	h.cfg.OnBack()
}

// syncDepth reflects an in-app navigation change into the browser history.
// The first change after bind pushes the top slot into existence; later
// changes only rewrite it, so the history never grows past two entries.
func (h *Hierarchical) syncDepth() {
	url := h.currentURL()

	switch st := h.cfg.Port.State(); {
	case st.Present && st.Value == RootEntry:
		h.cfg.Port.PushState(StateOf(CurrentEntry), url)
		h.cfg.Metrics.RecordPush()
	case st.Present && st.Value == CurrentEntry:
		h.cfg.Port.ReplaceState(StateOf(CurrentEntry), url)
		h.cfg.Metrics.RecordReplace()
	default:
		h.logger.Warn("unexpected history entry state", "state", st.Value, "present", st.Present)
	}
}

func (h *Hierarchical) currentURL() string {
	base := h.cfg.Port.OriginAndPath()
	if frag, ok := h.cfg.CurrentFragment(); ok {
		return base + frag
	}
	return base
}
