// Package websocket implements the connection manager: it owns the socket,
// the connection state machine and the bounded-retry reconnection policy.
// State transitions happen only here; collaborators observe them through
// events published on the session bus.
package websocket

import (
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/crateandcrypt/netclient"
	"github.com/crateandcrypt/netclient/internal/eventbus"
	"github.com/crateandcrypt/netclient/protocol"
)

const writeTimeout = 10 * time.Second

// InboundHandler receives decoded envelopes on the read goroutine, in exactly
// the order the transport delivered them. A slow handler stalls the pump, so
// handlers must complete quickly.
type InboundHandler func(env protocol.Envelope)

// wsConn is the slice of *websocket.Conn the manager uses. Tests substitute a
// scripted transport through the dial hook.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Manager owns the WebSocket connection lifecycle.
//
// The reconnect timer handle is the only mutable cross-callback state tied to
// retries; Disconnect stops it synchronously before returning so an explicit
// teardown is never followed by an automatic redial.
type Manager struct {
	id  string
	cfg *netclient.Config
	bus *eventbus.Bus

	onMessage InboundHandler
	dial      func(urlStr string) (wsConn, error)

	mu         sync.Mutex
	state      netclient.ConnectionState
	conn       wsConn
	connDone   chan struct{}
	userClosed bool
	attempt    int
	retryTimer *time.Timer
	lastURL    string

	writeMu sync.Mutex
	limiter *rate.Limiter

	protocolErrors atomic.Uint64
	lastPongMilli  atomic.Int64
}

// New creates a connection manager. Decoded inbound envelopes are handed to
// onMessage; lifecycle transitions are published on bus.
func New(cfg *netclient.Config, bus *eventbus.Bus, onMessage InboundHandler) *Manager {
	var limiter *rate.Limiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		limiter = rate.NewLimiter(cfg.RateLimit.MessagesPerSecond, cfg.RateLimit.Burst)
	}

	m := &Manager{
		id:        uuid.New().String(),
		cfg:       cfg,
		bus:       bus,
		onMessage: onMessage,
		limiter:   limiter,
		state:     netclient.StateDisconnected,
	}
	m.dial = m.dialWebSocket
	return m
}

// ID returns the manager's instance identifier used in log lines.
func (m *Manager) ID() string {
	return m.id
}

// Status returns the current connection state.
func (m *Manager) Status() netclient.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect opens the socket to the configured server. Valid only from the
// disconnected or errored states. The dial happens asynchronously: success is
// announced via EventConnect, failure via EventError followed by the
// reconnection policy.
func (m *Manager) Connect() error {
	urlStr, err := m.buildURL()
	if err != nil {
		return fmt.Errorf("%s: %w", netclient.ErrInvalidServerURL, err)
	}

	m.mu.Lock()
	if m.state == netclient.StateConnecting || m.state == netclient.StateConnected {
		m.mu.Unlock()
		return fmt.Errorf("%s (state %s)", netclient.ErrAlreadyConnected, m.state)
	}
	m.userClosed = false
	m.state = netclient.StateConnecting
	m.lastURL = urlStr
	m.mu.Unlock()

	go m.dialAndRun(urlStr)
	return nil
}

// buildURL appends the playerId and roomId query parameters to the configured
// endpoint. Both are omitted when empty: the server then assigns an id or
// creates a room.
func (m *Manager) buildURL() (string, error) {
	u, err := url.Parse(m.cfg.ServerURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if m.cfg.PlayerID != "" {
		q.Set("playerId", m.cfg.PlayerID)
	}
	if m.cfg.RoomID != "" {
		q.Set("roomId", m.cfg.RoomID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (m *Manager) dialWebSocket(urlStr string) (wsConn, error) {
	dialer := &websocket.Dialer{HandshakeTimeout: m.cfg.HandshakeTimeout}
	conn, _, err := dialer.Dial(urlStr, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (m *Manager) dialAndRun(urlStr string) {
	conn, err := m.dial(urlStr)
	if err != nil {
		m.logf("dial %s failed: %v", urlStr, err)
		m.mu.Lock()
		m.state = netclient.StateError
		m.mu.Unlock()
		m.bus.Publish(netclient.EventError, fmt.Errorf("%s: %w", netclient.ErrDialFailed, err))
		// A browser socket fires close after error, funneling dial failures
		// into the same retry path as an unclean close.
		m.scheduleReconnect()
		return
	}

	m.mu.Lock()
	if m.userClosed {
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.conn = conn
	m.state = netclient.StateConnected
	m.attempt = 0
	done := make(chan struct{})
	m.connDone = done
	m.mu.Unlock()

	m.logf("connected to %s", urlStr)
	m.bus.Publish(netclient.EventConnect, nil)

	go m.heartbeat(done)
	m.readPump(conn)
}

// readPump delivers decoded envelopes in transport order on this goroutine.
// A frame that fails to decode is counted and dropped; it never tears the
// connection down.
func (m *Manager) readPump(conn wsConn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			code, reason := closeInfo(err)
			m.handleClose(code, reason)
			return
		}

		env, derr := protocol.Decode(data)
		if derr != nil {
			m.protocolErrors.Add(1)
			m.logf("dropping inbound frame: %v", derr)
			continue
		}

		if env.Type == protocol.KindPong {
			m.lastPongMilli.Store(time.Now().UnixMilli())
		}
		if m.onMessage != nil {
			m.onMessage(env)
		}
	}
}

func closeInfo(err error) (int, string) {
	if ce, ok := err.(*websocket.CloseError); ok {
		return ce.Code, ce.Text
	}
	return websocket.CloseAbnormalClosure, err.Error()
}

// handleClose is the single exit path for a live connection. Whether the
// close was user-initiated is read from explicit state, never inferred from
// the close code.
func (m *Manager) handleClose(code int, reason string) {
	m.mu.Lock()
	userClosed := m.userClosed
	if m.connDone != nil {
		close(m.connDone)
		m.connDone = nil
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.state = netclient.StateDisconnected
	m.mu.Unlock()

	m.logf("connection closed: code=%d reason=%q user=%v", code, reason, userClosed)
	m.bus.Publish(netclient.EventDisconnect, netclient.DisconnectInfo{Code: code, Reason: reason})

	if userClosed {
		return
	}
	m.scheduleReconnect()
}

// scheduleReconnect arms the backoff timer for the next automatic attempt, or
// publishes the terminal reconnect_failed event once attempts are exhausted.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	if m.userClosed {
		m.mu.Unlock()
		return
	}
	if m.attempt >= m.cfg.Reconnect.MaxAttempts {
		m.state = netclient.StateDisconnected
		attempts := m.attempt
		m.mu.Unlock()
		m.logf("reconnect attempts exhausted after %d tries", attempts)
		m.bus.Publish(netclient.EventReconnectFailed, attempts)
		return
	}
	delay := Delay(m.cfg.Reconnect, m.attempt)
	m.attempt++
	attempt := m.attempt
	m.retryTimer = time.AfterFunc(delay, m.redial)
	m.mu.Unlock()

	m.logf("scheduling reconnect attempt %d in %s", attempt, delay)
}

func (m *Manager) redial() {
	m.mu.Lock()
	if m.userClosed || m.state == netclient.StateConnecting || m.state == netclient.StateConnected {
		m.mu.Unlock()
		return
	}
	m.retryTimer = nil
	m.state = netclient.StateConnecting
	urlStr := m.lastURL
	m.mu.Unlock()

	m.dialAndRun(urlStr)
}

// Send encodes and writes one envelope. It returns false without performing
// any I/O unless the state is Connected, and never queues an undelivered
// message: the caller detects the drop and decides whether to retry.
func (m *Manager) Send(kind protocol.MessageKind, payload any) bool {
	m.mu.Lock()
	conn := m.conn
	connected := m.state == netclient.StateConnected
	m.mu.Unlock()

	if !connected || conn == nil {
		return false
	}
	if m.limiter != nil && !m.limiter.Allow() {
		m.logf("%s (%s)", netclient.ErrRateLimited, kind)
		return false
	}

	data, err := protocol.Encode(kind, payload)
	if err != nil {
		m.logf("%s: %v", netclient.ErrFailedToEncode, err)
		return false
	}

	m.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = conn.WriteMessage(websocket.TextMessage, data)
	m.writeMu.Unlock()

	if err != nil {
		m.logf("write %s failed: %v", kind, err)
		return false
	}
	return true
}

// Disconnect performs an explicit clean close. It stops any pending reconnect
// timer before touching the socket, so no automatic redial can follow.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	m.userClosed = true
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	conn := m.conn
	if conn == nil {
		m.state = netclient.StateDisconnected
	}
	m.mu.Unlock()

	if conn == nil {
		return nil
	}

	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect")
	conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
	conn.Close()
	// The read pump observes the close and runs handleClose with the
	// user-closed flag set.
	return nil
}

// heartbeat sends an application-level Ping envelope on a fixed interval
// while the connection is up. Pong replies only refresh a diagnostic
// timestamp; no reply timeout is enforced.
func (m *Manager) heartbeat(done <-chan struct{}) {
	if m.cfg.HeartbeatInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Send(protocol.KindPing, protocol.PingPayload{Time: time.Now().UnixMilli()})
		case <-done:
			return
		}
	}
}

// NoteProtocolError folds a payload-level decode failure into the same
// diagnostics counter as frame-level ones.
func (m *Manager) NoteProtocolError() {
	m.protocolErrors.Add(1)
}

// Diagnostics returns connection health counters.
func (m *Manager) Diagnostics() netclient.Diagnostics {
	m.mu.Lock()
	attempts := m.attempt
	m.mu.Unlock()

	d := netclient.Diagnostics{
		ProtocolErrors:    m.protocolErrors.Load(),
		ReconnectAttempts: attempts,
	}
	if ms := m.lastPongMilli.Load(); ms > 0 {
		d.LastPongAt = time.UnixMilli(ms)
	}
	return d
}

func (m *Manager) logf(format string, args ...any) {
	logger := m.cfg.Logger
	if logger == nil {
		return
	}
	logger.Printf("netclient[%s]: %s", m.id[:8], fmt.Sprintf(format, args...))
}
