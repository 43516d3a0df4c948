// Package session wires the connection manager, the reconciler, the outbound
// throttler and the event bus into one session object. The session is the
// exhaustive dispatch point for inbound message kinds: adding a kind to the
// protocol means extending the switch here.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/crateandcrypt/netclient"
	"github.com/crateandcrypt/netclient/internal/eventbus"
	"github.com/crateandcrypt/netclient/internal/outbound"
	"github.com/crateandcrypt/netclient/internal/reconcile"
	"github.com/crateandcrypt/netclient/internal/websocket"
	"github.com/crateandcrypt/netclient/protocol"
)

// Session implements netclient.Session. Constructed once at startup and
// passed by reference; there is no ambient global lookup.
type Session struct {
	cfg        *netclient.Config
	bus        *eventbus.Bus
	manager    *websocket.Manager
	reconciler *reconcile.Reconciler
	throttler  *outbound.Throttler
	renderer   netclient.Renderer
	ui         netclient.UI

	mu       sync.Mutex
	playerID string
	roomID   string
	closed   bool

	quit chan struct{}
}

// New builds a session from the config and collaborators. Zero config fields
// are filled from DefaultConfig. The run loop driving the outbound throttler
// and the idle sweep starts immediately and stops on Close.
func New(cfg *netclient.Config, renderer netclient.Renderer, ui netclient.UI, input netclient.InputSource) *Session {
	cfg = normalize(cfg)

	s := &Session{
		cfg:      cfg,
		bus:      eventbus.New(cfg.Logger),
		renderer: renderer,
		ui:       ui,
		quit:     make(chan struct{}),
	}
	s.manager = websocket.New(cfg, s.bus, s.dispatch)
	s.reconciler = reconcile.New(cfg.IdleWindow, renderer)
	s.throttler = outbound.New(input, s.sendPlayerUpdate, cfg.PositionThreshold, cfg.YawThreshold)

	s.bus.Subscribe(netclient.EventConnect, func(any) { s.sendJoin() })
	s.bus.Subscribe(netclient.EventDisconnect, func(any) { s.reconciler.Clear() })

	go s.run()
	return s
}

func normalize(cfg *netclient.Config) *netclient.Config {
	def := netclient.DefaultConfig()
	if cfg == nil {
		return def
	}
	out := *cfg
	if out.ServerURL == "" {
		out.ServerURL = def.ServerURL
	}
	if out.Reconnect.BaseDelay <= 0 {
		out.Reconnect.BaseDelay = def.Reconnect.BaseDelay
	}
	if out.HeartbeatInterval <= 0 {
		out.HeartbeatInterval = def.HeartbeatInterval
	}
	if out.IdleWindow <= 0 {
		out.IdleWindow = def.IdleWindow
	}
	if out.TickInterval <= 0 {
		out.TickInterval = def.TickInterval
	}
	if out.PositionThreshold <= 0 {
		out.PositionThreshold = def.PositionThreshold
	}
	if out.YawThreshold <= 0 {
		out.YawThreshold = def.YawThreshold
	}
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = def.HandshakeTimeout
	}
	if out.Logger == nil {
		out.Logger = def.Logger
	}
	return &out
}

// run is the fixed network tick, decoupled from render frame rate. It drives
// the outbound throttler and the remote-entity idle sweep.
func (s *Session) run() {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			now := time.Now()
			s.reconciler.Sweep(now)
			if s.manager.Status() == netclient.StateConnected && s.localID() != "" {
				s.throttler.Tick()
			}
		}
	}
}

func (s *Session) localID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

// sendJoin announces the session to the server after every socket open. On a
// reconnect the previously assigned player id is reused so the server can
// restore the same identity.
func (s *Session) sendJoin() {
	s.mu.Lock()
	playerID := s.playerID
	if playerID == "" {
		playerID = s.cfg.PlayerID
	}
	roomID := s.roomID
	if roomID == "" {
		roomID = s.cfg.RoomID
	}
	s.mu.Unlock()

	s.manager.Send(protocol.KindJoin, protocol.JoinPayload{
		PlayerID:   playerID,
		RoomID:     roomID,
		CreateRoom: s.cfg.CreateRoom,
	})
}

// dispatch routes one decoded envelope. Runs on the read goroutine, in
// transport delivery order. Unknown kinds are forwarded to generic
// subscribers, never rejected.
func (s *Session) dispatch(env protocol.Envelope) {
	switch env.Type {
	case protocol.KindJoin:
		s.handleJoin(env)

	case protocol.KindLeave:
		p, ok := decode[protocol.LeavePayload](s, env)
		if !ok {
			return
		}
		s.reconciler.OnLeave(p.PlayerID)

	case protocol.KindPlayerUpdate:
		p, ok := decode[protocol.PlayerUpdatePayload](s, env)
		if !ok {
			return
		}
		s.reconciler.OnPlayerUpdate(p.PlayerID, p.Position, p.Position.Rotation, time.Now())

	case protocol.KindChat:
		p, ok := decode[protocol.ChatPayload](s, env)
		if !ok {
			return
		}
		s.bus.Publish(netclient.EventChat, p)

	case protocol.KindWorldUpdate:
		p, ok := decode[protocol.WorldUpdatePayload](s, env)
		if !ok {
			return
		}
		s.bus.Publish(netclient.EventWorldUpdate, p)

	case protocol.KindError:
		// A server-sent error reflects a server decision (room full, bad
		// request); surface it verbatim and never auto-retry.
		p, ok := decode[protocol.ErrorPayload](s, env)
		if !ok {
			return
		}
		if s.ui != nil {
			s.ui.ShowConnectionError(p.Message)
		}
		s.bus.Publish(netclient.EventError, p)

	case protocol.KindPing:
		p, ok := decode[protocol.PingPayload](s, env)
		if !ok {
			return
		}
		s.manager.Send(protocol.KindPong, protocol.PingPayload{Time: p.Time})

	case protocol.KindPong:
		// Diagnostic timestamp already recorded by the manager.

	default:
		s.bus.Publish(netclient.EventMessage, env)
	}
}

// decode unwraps a payload, folding failures into diagnostics. A malformed
// payload is local to its message: logged, counted and dropped.
func decode[T any](s *Session, env protocol.Envelope) (T, bool) {
	p, err := protocol.DecodePayload[T](env)
	if err != nil {
		s.manager.NoteProtocolError()
		s.cfg.Logger.Printf("netclient: dropping %s message: %v", env.Type, err)
		var zero T
		return zero, false
	}
	return p, true
}

// handleJoin treats the first inbound Join (or one echoing the local id) as
// the welcome that fixes the session identity; any other Join is a remote
// player entering the room.
func (s *Session) handleJoin(env protocol.Envelope) {
	p, ok := decode[protocol.JoinPayload](s, env)
	if !ok {
		return
	}

	s.mu.Lock()
	welcome := s.playerID == "" || p.PlayerID == s.playerID
	if welcome {
		s.playerID = p.PlayerID
		s.roomID = p.RoomID
	}
	local := s.playerID
	s.mu.Unlock()

	if welcome {
		s.reconciler.SetLocalID(local)
		if s.renderer != nil {
			s.renderer.CreateLocalAvatar(local)
		}
		if s.ui != nil {
			s.ui.DisplayRoomID(p.RoomID)
			if p.PlayersCount > 0 {
				s.ui.UpdatePlayerCount(p.PlayersCount)
			}
		}
		s.bus.Publish(netclient.EventWelcome, p)
		return
	}

	s.reconciler.OnJoin(p.PlayerID, protocol.Position{}, time.Now())
	if s.ui != nil && p.PlayersCount > 0 {
		s.ui.UpdatePlayerCount(p.PlayersCount)
	}
}

func (s *Session) sendPlayerUpdate(pos protocol.Position, yaw float64) bool {
	id := s.localID()
	if id == "" {
		return false
	}
	pos.Rotation = yaw
	return s.manager.Send(protocol.KindPlayerUpdate, protocol.PlayerUpdatePayload{
		PlayerID: id,
		Position: pos,
		Action:   protocol.ActionMove,
	})
}

// Connect opens the socket. See netclient.Session.
func (s *Session) Connect() error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return errors.New(netclient.ErrSessionClosed)
	}
	return s.manager.Connect()
}

// Disconnect performs a clean close and cancels any pending reconnect.
func (s *Session) Disconnect() error {
	return s.manager.Disconnect()
}

// SendChat sends a chat message; false means it was dropped.
func (s *Session) SendChat(text string) bool {
	return s.manager.Send(protocol.KindChat, protocol.ChatPayload{
		PlayerID: s.localID(),
		Text:     text,
	})
}

// Status returns the connection state.
func (s *Session) Status() netclient.ConnectionState {
	return s.manager.Status()
}

// Diagnostics returns connection health counters.
func (s *Session) Diagnostics() netclient.Diagnostics {
	return s.manager.Diagnostics()
}

// On subscribes a handler to a session event.
func (s *Session) On(event string, handler netclient.Handler) netclient.Subscription {
	return s.bus.Subscribe(event, handler)
}

// Off cancels a subscription returned by On.
func (s *Session) Off(sub netclient.Subscription) {
	if sub != nil {
		sub.Cancel()
	}
}

// Close stops the run loop and disconnects. The session cannot be reused.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.quit)
	return s.manager.Disconnect()
}

// Remotes returns copies of the currently tracked remote entities.
func (s *Session) Remotes() []reconcile.Entity {
	return s.reconciler.Snapshot()
}
