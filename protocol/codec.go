package protocol

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// maxEnvelopeSize bounds inbound frames so a misbehaving peer cannot force
// huge allocations. The original protocol carries small JSON payloads only.
const maxEnvelopeSize = 1 * 1024 * 1024

// snippetLen limits how much of a rejected frame ends up in error text.
const snippetLen = 64

// ProtocolError reports a frame that could not be decoded. It is local to the
// one message that produced it: callers log it and drop the frame, the
// connection stays up.
type ProtocolError struct {
	Reason string
	Input  string // truncated prefix of the offending frame
	Err    error  // underlying json error, may be nil
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v (input %q)", e.Reason, e.Err, e.Input)
	}
	return fmt.Sprintf("protocol: %s (input %q)", e.Reason, e.Input)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func protocolErr(reason string, data []byte, err error) *ProtocolError {
	snippet := data
	if len(snippet) > snippetLen {
		snippet = snippet[:snippetLen]
	}
	for !utf8.Valid(snippet) && len(snippet) > 0 {
		snippet = snippet[:len(snippet)-1]
	}
	return &ProtocolError{Reason: reason, Input: string(snippet), Err: err}
}

// Encode wraps the payload in an envelope stamped with the current time and
// serializes it to JSON text.
func Encode(kind MessageKind, payload any) ([]byte, error) {
	if kind == "" {
		return nil, fmt.Errorf("protocol: encode with empty message kind")
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s payload: %w", kind, err)
	}
	env := Envelope{Type: kind, Payload: pb, Timestamp: time.Now().UnixMilli()}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s envelope: %w", kind, err)
	}
	return data, nil
}

// Decode parses one wire frame into an envelope. Every failure is reported as
// a *ProtocolError; Decode never panics. An unknown Type is not a failure:
// forward compatibility is the caller's concern, not the codec's.
func Decode(data []byte) (Envelope, error) {
	if len(data) == 0 {
		return Envelope{}, protocolErr("empty frame", data, nil)
	}
	if len(data) > maxEnvelopeSize {
		return Envelope{}, protocolErr(fmt.Sprintf("frame size %d exceeds maximum %d", len(data), maxEnvelopeSize), nil, nil)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, protocolErr("malformed envelope", data, err)
	}
	if env.Type == "" {
		return Envelope{}, protocolErr("envelope missing type field", data, nil)
	}
	return env, nil
}

// DecodePayload unmarshals the envelope payload into a concrete wire type.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 {
		return out, protocolErr(fmt.Sprintf("empty payload for kind %q", env.Type), nil, nil)
	}
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, protocolErr(fmt.Sprintf("malformed %s payload", env.Type), env.Payload, err)
	}
	return out, nil
}
