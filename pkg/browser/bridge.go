package browser

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/navstack-dev/navstack/pkg/history"
)

// Bridge message types, mirrored by the client shim.
const (
	bridgeTypeInit     = "init"     // page -> server: initial URL and state
	bridgeTypePopstate = "popstate" // page -> server: navigation event
	bridgeTypePush     = "push"     // server -> page: history.pushState
	bridgeTypeReplace  = "replace"  // server -> page: history.replaceState
	bridgeTypeGo       = "go"       // server -> page: history.go(delta)
)

// bridgeMessage is the JSON wire format in both directions. State uses a
// pointer so null survives the round trip distinct from "".
type bridgeMessage struct {
	Type     string  `json:"type"`
	State    *string `json:"state,omitempty"`
	URL      string  `json:"url,omitempty"`
	Origin   string  `json:"origin,omitempty"`
	Fragment string  `json:"fragment,omitempty"`
	Delta    int     `json:"delta,omitempty"`
}

const bridgeWriteTimeout = 10 * time.Second

// Bridge implements history.Port over a WebSocket connection to a browser
// page running the client shim. Commands (push/replace/go) are sent to the
// page; popstate events come back. The bridge keeps a local mirror of the
// page's URL and entry state so the Port getters stay synchronous.
type Bridge struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger

	// writeMu serializes WebSocket writes.
	writeMu sync.Mutex

	// mu guards the mirror.
	mu       sync.RWMutex
	origin   string
	fragment string
	state    history.EntryState

	events chan history.NavigationEvent

	ready     chan struct{}
	readyOnce sync.Once
	closeOnce sync.Once
}

func newBridge(conn *websocket.Conn, logger *slog.Logger) *Bridge {
	id := uuid.NewString()
	return &Bridge{
		id:     id,
		conn:   conn,
		logger: logger.With("bridge_id", id),
		events: make(chan history.NavigationEvent, memoryEventBuffer),
		ready:  make(chan struct{}),
	}
}

// ID returns the bridge's connection identifier.
func (b *Bridge) ID() string { return b.id }

// Ready is closed once the page's init message arrived and the mirror is
// populated. Callers should wait for it before binding a synchronizer.
func (b *Bridge) Ready() <-chan struct{} { return b.ready }

// Fragment returns the page's current URL fragment and query.
func (b *Bridge) Fragment() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fragment
}

// OriginAndPath returns the page's URL up to (excluding) the fragment.
func (b *Bridge) OriginAndPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.origin
}

// State returns the mirrored current history entry value.
func (b *Bridge) State() history.EntryState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// ReplaceState rewrites the page's current history entry.
func (b *Bridge) ReplaceState(state history.EntryState, url string) {
	b.setMirror(state, url)
	b.send(bridgeMessage{Type: bridgeTypeReplace, State: statePtr(state), URL: url})
}

// PushState appends a new history entry on the page.
func (b *Bridge) PushState(state history.EntryState, url string) {
	b.setMirror(state, url)
	b.send(bridgeMessage{Type: bridgeTypePush, State: statePtr(state), URL: url})
}

// Go asks the page to navigate by offset. The resulting popstate comes back
// as a navigation event; the mirror is updated when it arrives.
func (b *Bridge) Go(delta int) {
	b.send(bridgeMessage{Type: bridgeTypeGo, Delta: delta})
}

// Events returns the navigation event stream. The channel is closed when
// the page disconnects.
func (b *Bridge) Events() <-chan history.NavigationEvent {
	return b.events
}

// ReadLoop consumes messages from the page until the connection closes.
// It blocks; the HTTP handler goroutine runs it.
func (b *Bridge) ReadLoop() {
	defer b.close()

	for {
		_, msg, err := b.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				b.logger.Error("read error", "error", err)
			}
			return
		}

		var m bridgeMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			b.logger.Error("message decode error", "error", err)
			continue
		}

		switch m.Type {
		case bridgeTypeInit:
			b.mu.Lock()
			b.origin = m.Origin
			b.fragment = m.Fragment
			b.state = stateOfPtr(m.State)
			b.mu.Unlock()
			b.readyOnce.Do(func() { close(b.ready) })
			b.logger.Info("bridge connected", "origin", m.Origin, "fragment", m.Fragment)

		case bridgeTypePopstate:
			st := stateOfPtr(m.State)
			b.mu.Lock()
			b.fragment = m.Fragment
			b.state = st
			b.mu.Unlock()
			b.events <- history.NavigationEvent{State: st}

		default:
			b.logger.Warn("unknown message type", "type", m.Type)
		}
	}
}

func (b *Bridge) setMirror(state history.EntryState, url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = state
	if i := strings.Index(url, "#"); i >= 0 {
		b.fragment = url[i:]
	} else {
		b.fragment = ""
	}
}

func (b *Bridge) send(m bridgeMessage) {
	data, err := json.Marshal(m)
	if err != nil {
		b.logger.Error("message encode error", "error", err)
		return
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.conn.SetWriteDeadline(time.Now().Add(bridgeWriteTimeout))
	if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		b.logger.Error("write error", "error", err)
	}
}

func (b *Bridge) close() {
	b.closeOnce.Do(func() {
		close(b.events)
		b.conn.Close()
		b.logger.Info("bridge closed")
	})
}

func statePtr(st history.EntryState) *string {
	if !st.Present {
		return nil
	}
	v := st.Value
	return &v
}

func stateOfPtr(p *string) history.EntryState {
	if p == nil {
		return history.NoState
	}
	return history.StateOf(*p)
}

// BridgeServer accepts WebSocket connections from browser pages and hands
// each one to the configured callback as a ready-to-use Bridge.
type BridgeServer struct {
	upgrader  websocket.Upgrader
	logger    *slog.Logger
	onConnect func(*Bridge)
}

// NewBridgeServer creates a bridge server. onConnect runs on its own
// goroutine per connection and typically binds a synchronizer to the
// bridge.
func NewBridgeServer(onConnect func(*Bridge), logger *slog.Logger) *BridgeServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &BridgeServer{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Demo server; tighten per deployment.
			},
		},
		logger:    logger,
		onConnect: onConnect,
	}
}

// HandleWebSocket upgrades the request and runs the bridge's read loop
// until the page disconnects.
func (s *BridgeServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}

	b := newBridge(conn, s.logger)
	if s.onConnect != nil {
		go s.onConnect(b)
	}
	b.ReadLoop()
}
