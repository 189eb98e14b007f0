// Package history synchronizes an application back stack with a host
// browser's session history, bidirectionally, so browser Back/Forward and
// in-app navigation stay mutually consistent.
//
// The browser exposes only a single mutable current entry (push/replace)
// plus a serial stream of navigation events; there is no addressable list.
// Two strategies reconcile an arbitrary stack with that primitive:
//
//   - Chronological mirrors the whole stack into the history as a chain of
//     entries, one per stack element, serialized as newline-joined
//     fragments in the entry state.
//   - Hierarchical keeps the history two entries deep and reinterprets
//     browser Back as a logical pop, using sentinel state values to tell
//     the two physical slots apart.
//
// Real browsers become unusable when history is mutated twice in a row or
// mutated from inside the handler of a navigation event that same mutation
// produced. Both strategies therefore issue at most one history mutation
// per observed event, and each synchronizer funnels every read and write of
// the history object through a single event-loop goroutine.
//
// At most one synchronizer may bind per process; a Guard enforces this and
// is never released.
package history
