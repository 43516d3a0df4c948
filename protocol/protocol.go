package protocol

import "encoding/json"

// MessageKind identifies the type of a wire envelope. The set below is closed
// at the dispatch boundary but open at the decode boundary: Decode accepts
// kinds it has never seen so newer servers can talk to older clients.
type MessageKind string

const (
	KindJoin         MessageKind = "Join"
	KindLeave        MessageKind = "Leave"
	KindChat         MessageKind = "Chat"
	KindPlayerUpdate MessageKind = "PlayerUpdate"
	KindWorldUpdate  MessageKind = "WorldUpdate"
	KindError        MessageKind = "Error"
	KindPing         MessageKind = "Ping"
	KindPong         MessageKind = "Pong"
)

// Known reports whether the kind is part of the protocol this client was
// built against.
func (k MessageKind) Known() bool {
	switch k {
	case KindJoin, KindLeave, KindChat, KindPlayerUpdate, KindWorldUpdate, KindError, KindPing, KindPong:
		return true
	}
	return false
}

// Envelope is the wrapper around every wire message. Timestamp is assigned by
// the producer in Unix milliseconds and is not used for ordering.
type Envelope struct {
	Type      MessageKind     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// Position carries player and entity coordinates. Rotation is the yaw in
// radians; the server omits it for entities that have no facing.
type Position struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation,omitempty"`
}

// JoinPayload doubles as the outbound join request and the inbound welcome.
// An empty PlayerID on the request asks the server to assign one; an empty
// RoomID with CreateRoom set asks for a fresh room.
type JoinPayload struct {
	PlayerID     string `json:"player_id,omitempty"`
	RoomID       string `json:"room_id,omitempty"`
	CreateRoom   bool   `json:"create_room,omitempty"`
	PlayersCount int    `json:"players_count,omitempty"`
}

type LeavePayload struct {
	PlayerID string `json:"player_id"`
}

type ChatPayload struct {
	PlayerID string `json:"player_id,omitempty"`
	Text     string `json:"text"`
}

// ActionMove is the only action the original protocol defines for
// PlayerUpdate messages.
const ActionMove = "move"

type PlayerUpdatePayload struct {
	PlayerID string   `json:"player_id"`
	Position Position `json:"position"`
	Action   string   `json:"action,omitempty"`
}

// Entity is a world object carried by WorldUpdate snapshots.
type Entity struct {
	ID         string   `json:"id"`
	EntityType string   `json:"entity_type"`
	Position   Position `json:"position"`
	State      string   `json:"state,omitempty"`
}

type WorldUpdatePayload struct {
	Entities []Entity `json:"entities"`
}

// ErrorPayload is a server-side application error (room full, bad request).
// It reflects a server decision and is never auto-retried by the client.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

// PingPayload carries the sender's clock in Unix milliseconds. Pong echoes it
// back unchanged.
type PingPayload struct {
	Time int64 `json:"time"`
}
