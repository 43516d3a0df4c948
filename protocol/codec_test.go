package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// TestEncode tests the Encode function with various inputs
func TestEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		kind      MessageKind
		payload   any
		wantError bool
	}{
		{
			name:      "join request",
			kind:      KindJoin,
			payload:   JoinPayload{CreateRoom: true},
			wantError: false,
		},
		{
			name:      "player update",
			kind:      KindPlayerUpdate,
			payload:   PlayerUpdatePayload{PlayerID: "p1", Position: Position{X: 1, Y: 2, Z: 3, Rotation: 0.5}, Action: ActionMove},
			wantError: false,
		},
		{
			name:      "chat",
			kind:      KindChat,
			payload:   ChatPayload{Text: "hello"},
			wantError: false,
		},
		{
			name:      "ping",
			kind:      KindPing,
			payload:   PingPayload{Time: 1234},
			wantError: false,
		},
		{
			name:      "nil payload",
			kind:      KindLeave,
			payload:   nil,
			wantError: false,
		},
		{
			name:      "empty kind",
			kind:      "",
			payload:   ChatPayload{Text: "x"},
			wantError: true,
		},
		{
			name:      "unmarshalable payload",
			kind:      KindChat,
			payload:   make(chan int),
			wantError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := Encode(tt.kind, tt.payload)

			if (err != nil) != tt.wantError {
				t.Errorf("Encode() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if tt.wantError {
				return
			}

			env, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode() of encoded frame failed: %v", err)
			}
			if env.Type != tt.kind {
				t.Errorf("decoded kind = %q, want %q", env.Type, tt.kind)
			}
			if env.Timestamp <= 0 {
				t.Errorf("timestamp = %d, want a positive Unix millisecond value", env.Timestamp)
			}
		})
	}
}

// TestDecode tests the Decode function with various raw frames
func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      string
		wantKind  MessageKind
		wantError bool
	}{
		{
			name:     "welcome join",
			data:     `{"type":"Join","payload":{"player_id":"p1","room_id":"42"},"timestamp":1}`,
			wantKind: KindJoin,
		},
		{
			name:     "player update",
			data:     `{"type":"PlayerUpdate","payload":{"player_id":"p2","position":{"x":1,"y":0,"z":-3,"rotation":1.2},"action":"move"},"timestamp":99}`,
			wantKind: KindPlayerUpdate,
		},
		{
			name:     "unknown kind passes through",
			data:     `{"type":"Teleport","payload":{"dest":"spawn"},"timestamp":5}`,
			wantKind: MessageKind("Teleport"),
		},
		{
			name:      "not json",
			data:      `{not json`,
			wantError: true,
		},
		{
			name:      "empty frame",
			data:      ``,
			wantError: true,
		},
		{
			name:      "missing type field",
			data:      `{"payload":{"text":"hi"},"timestamp":3}`,
			wantError: true,
		},
		{
			name:      "type is not a string",
			data:      `{"type":7,"payload":{},"timestamp":3}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, err := Decode([]byte(tt.data))

			if (err != nil) != tt.wantError {
				t.Errorf("Decode() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if tt.wantError {
				var perr *ProtocolError
				if !errors.As(err, &perr) {
					t.Errorf("Decode() error type = %T, want *ProtocolError", err)
				}
				return
			}
			if env.Type != tt.wantKind {
				t.Errorf("Decode() kind = %q, want %q", env.Type, tt.wantKind)
			}
		})
	}
}

// TestDecodePayload tests the generic payload decoder
func TestDecodePayload(t *testing.T) {
	t.Parallel()

	t.Run("welcome fields", func(t *testing.T) {
		t.Parallel()

		env, err := Decode([]byte(`{"type":"Join","payload":{"player_id":"p1","room_id":"42","players_count":3},"timestamp":1}`))
		if err != nil {
			t.Fatalf("Decode() failed: %v", err)
		}
		welcome, err := DecodePayload[JoinPayload](env)
		if err != nil {
			t.Fatalf("DecodePayload() failed: %v", err)
		}
		if welcome.PlayerID != "p1" || welcome.RoomID != "42" || welcome.PlayersCount != 3 {
			t.Errorf("welcome = %+v, want player p1 in room 42 with 3 players", welcome)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()

		_, err := DecodePayload[LeavePayload](Envelope{Type: KindLeave})
		var perr *ProtocolError
		if !errors.As(err, &perr) {
			t.Errorf("error type = %T, want *ProtocolError", err)
		}
	})

	t.Run("mismatched payload shape", func(t *testing.T) {
		t.Parallel()

		env := Envelope{Type: KindPing, Payload: json.RawMessage(`{"time":"not a number"}`)}
		if _, err := DecodePayload[PingPayload](env); err == nil {
			t.Error("DecodePayload() accepted a string where an integer is required")
		}
	})
}

// TestDecodeOversizedFrame verifies the inbound size guard
func TestDecodeOversizedFrame(t *testing.T) {
	t.Parallel()

	frame := `{"type":"Chat","payload":{"text":"` + strings.Repeat("a", maxEnvelopeSize) + `"},"timestamp":1}`
	_, err := Decode([]byte(frame))
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Errorf("error type = %T, want *ProtocolError", err)
	}
}

// TestProtocolErrorSnippet verifies rejected input is truncated in error text
func TestProtocolErrorSnippet(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(strings.Repeat("x", 500)))
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *ProtocolError", err)
	}
	if len(perr.Input) > snippetLen {
		t.Errorf("snippet length = %d, want at most %d", len(perr.Input), snippetLen)
	}
}

// TestMessageKindKnown tests membership of the closed kind set
func TestMessageKindKnown(t *testing.T) {
	t.Parallel()

	known := []MessageKind{KindJoin, KindLeave, KindChat, KindPlayerUpdate, KindWorldUpdate, KindError, KindPing, KindPong}
	for _, k := range known {
		if !k.Known() {
			t.Errorf("%q.Known() = false, want true", k)
		}
	}
	for _, k := range []MessageKind{"", "join", "Teleport"} {
		if k.Known() {
			t.Errorf("%q.Known() = true, want false", k)
		}
	}
}

// BenchmarkEncode benchmarks envelope encoding
func BenchmarkEncode(b *testing.B) {
	payload := PlayerUpdatePayload{PlayerID: "p1", Position: Position{X: 12.5, Y: 0, Z: -3.25, Rotation: 1.57}, Action: ActionMove}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Encode(KindPlayerUpdate, payload)
	}
}

// BenchmarkDecode benchmarks envelope decoding
func BenchmarkDecode(b *testing.B) {
	data, _ := Encode(KindPlayerUpdate, PlayerUpdatePayload{PlayerID: "p1", Position: Position{X: 12.5, Z: -3.25}, Action: ActionMove})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Decode(data)
	}
}
