package netclient

import (
	"time"

	"github.com/crateandcrypt/netclient/protocol"
)

// ConnectionState is the lifecycle state of the managed connection. It is
// mutated only by the connection manager through the defined state machine;
// callers observe it via Session.Status and lifecycle events.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateError
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Handler receives event data published on the session bus.
type Handler func(data any)

// Subscription is a handle returned by Session.On. Cancelling it removes the
// handler; cancelling twice is a no-op.
type Subscription interface {
	Cancel()
}

// DisconnectInfo accompanies EventDisconnect.
type DisconnectInfo struct {
	Code   int
	Reason string
}

// Diagnostics is a point-in-time snapshot of connection health counters.
// Dropped protocol errors accumulate here instead of surfacing to handlers.
type Diagnostics struct {
	ProtocolErrors    uint64
	ReconnectAttempts int
	LastPongAt        time.Time
}

// Session is the public surface of the client network layer.
//
// A Session is constructed once at startup via client.New and passed by
// reference wherever it is needed; there is no package-level singleton.
type Session interface {
	// Connect opens the socket to the configured server. Valid only while
	// disconnected or errored; returns an error otherwise. The transition to
	// Connected happens asynchronously and is announced via EventConnect.
	Connect() error

	// Disconnect performs a clean close and cancels any pending reconnect
	// timer. A user-initiated teardown is never followed by an automatic
	// reconnect.
	Disconnect() error

	// SendChat sends a chat message. Returns false when the message was
	// dropped because the connection is not up or the rate limit was hit.
	SendChat(text string) bool

	// Status returns the current connection state.
	Status() ConnectionState

	// Diagnostics returns connection health counters.
	Diagnostics() Diagnostics

	// On subscribes a handler to a session event. Handlers run synchronously
	// in subscription order; a panicking handler is logged and skipped
	// without affecting later handlers.
	On(event string, handler Handler) Subscription

	// Off cancels a subscription returned by On.
	Off(sub Subscription)

	// Close stops the session run loop and disconnects. The session cannot
	// be reused afterwards.
	Close() error
}

// Renderer is the rendering collaborator. The session never touches scene
// state directly; avatar lifecycle flows through these three calls.
type Renderer interface {
	CreateLocalAvatar(id string)
	UpdateRemoteAvatar(id string, pos protocol.Position, yaw float64)
	RemoveRemoteAvatar(id string)
}

// UI is the interface panel collaborator.
type UI interface {
	DisplayRoomID(id string)
	UpdatePlayerCount(n int)
	ShowConnectionError(message string)
}

// InputSource supplies the local avatar transform sampled by the outbound
// throttler on each tick.
type InputSource interface {
	Sample() (pos protocol.Position, yaw float64)
}
