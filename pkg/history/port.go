package history

// EntryState is the opaque value a browser history entry carries. Present
// distinguishes "no state" (a fresh page load or an entry written without
// state) from an empty string.
type EntryState struct {
	Value   string
	Present bool
}

// NoState is the absent entry state.
var NoState = EntryState{}

// StateOf returns a present EntryState with the given value.
func StateOf(value string) EntryState {
	return EntryState{Value: value, Present: true}
}

// NavigationEvent is delivered once per physical browser navigation (Back,
// Forward, or a manual address edit) and carries the state of the entry
// being navigated to.
type NavigationEvent struct {
	State EntryState
}

// Port abstracts the host browser's history object and current URL. The
// synchronizers consume a Port; they never touch a window global directly,
// so they can run against an in-memory fake or a remote bridge alike.
//
// Events returns a lazy, infinite, non-restartable stream: the browser
// delivers navigation events strictly serially, and the channel preserves
// that ordering. Implementations close the channel when the underlying
// browser connection goes away.
type Port interface {
	// Fragment returns the current URL fragment and query, e.g. "#home?x=1".
	Fragment() string

	// OriginAndPath returns the current URL up to (excluding) the fragment.
	OriginAndPath() string

	// State returns the current history entry's value.
	State() EntryState

	// ReplaceState overwrites the current entry's value and URL.
	ReplaceState(state EntryState, url string)

	// PushState appends a new entry with the given value and URL.
	PushState(state EntryState, url string)

	// Go navigates by offset, emulating the browser's Back/Forward controls.
	Go(delta int)

	// Events returns the navigation event stream.
	Events() <-chan NavigationEvent
}
