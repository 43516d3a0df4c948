// Package netclient provides the client-side network synchronization layer for
// Crate & Crypt: a WebSocket connection manager with bounded-retry
// reconnection, a JSON envelope codec, and a remote-entity reconciler that
// mirrors other players' avatars from server update messages.
//
// # Architecture
//
// Every wire message is a JSON envelope {type, payload, timestamp}. The
// connection manager owns the socket and the reconnection policy; decoded
// inbound envelopes are dispatched through an exhaustive switch over the known
// message kinds and fanned out on a synchronous event bus. The reconciler is
// the sole owner of the remote-entity map, and an outbound throttler samples
// the local avatar on a fixed tick, sending PlayerUpdate envelopes only when
// movement exceeds a threshold.
//
// # Quick Start
//
//	import (
//	    "github.com/crateandcrypt/netclient"
//	    "github.com/crateandcrypt/netclient/client"
//	)
//
//	cfg := netclient.DefaultConfig()
//	cfg.ServerURL = "ws://localhost:8080/ws"
//	cfg.CreateRoom = true
//
//	session := client.New(cfg, renderer, ui, input)
//
//	session.On(netclient.EventChat, func(data any) {
//	    msg := data.(protocol.ChatPayload)
//	    fmt.Printf("[%s] %s\n", msg.PlayerID, msg.Text)
//	})
//
//	if err := session.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Wire Protocol
//
// One JSON envelope per text frame:
//
//	{"type": "PlayerUpdate", "payload": {...}, "timestamp": 1712345678901}
//
// Kinds: Join, Leave, Chat, PlayerUpdate, WorldUpdate, Error, Ping, Pong.
// Unknown kinds are forwarded to generic subscribers rather than rejected, so
// newer servers can talk to older clients. Malformed frames are logged,
// counted in diagnostics and dropped; they never tear the connection down.
//
// # Reconnection
//
// An unclean close schedules a redial after BaseDelay*2^attempt (capped at
// MaxDelay). After MaxAttempts the client publishes reconnect_failed and stays
// disconnected until a manual Connect. Disconnect cancels any pending redial
// timer before returning, so a user-initiated teardown is never followed by
// an automatic reconnect.
//
// # Delivery Guarantees
//
//   - Send never queues: a message is either written to the socket now or
//     dropped with a false return. Callers decide whether to retry.
//   - Inbound messages are processed in transport delivery order.
//   - No Pong reply timeout is enforced; a half-dead connection can appear
//     connected until the transport reports the close.
package netclient
