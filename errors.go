package netclient

// Session event names. Lifecycle events come from the connection manager;
// message events are published by the session dispatcher after decoding.
const (
	// EventConnect fires when the socket opens. Data is the assigned player
	// id once the welcome has been processed, otherwise nil.
	EventConnect = "connect"
	// EventDisconnect fires on every socket close. Data is DisconnectInfo.
	EventDisconnect = "disconnect"
	// EventError fires on transport errors and server Error messages. Data
	// is an error or protocol.ErrorPayload respectively.
	EventError = "error"
	// EventReconnectFailed fires once when automatic retries are exhausted.
	EventReconnectFailed = "reconnect_failed"
	// EventWelcome fires when the Join welcome is processed. Data is
	// protocol.JoinPayload.
	EventWelcome = "welcome"
	// EventChat fires for inbound chat messages. Data is protocol.ChatPayload.
	EventChat = "chat"
	// EventWorldUpdate fires for world snapshots. Data is
	// protocol.WorldUpdatePayload.
	EventWorldUpdate = "world_update"
	// EventMessage fires for envelopes whose kind this client does not know.
	// Data is protocol.Envelope. Unknown kinds are forwarded, not rejected.
	EventMessage = "message"
)

// Standard error messages
const (
	// Connection errors
	ErrAlreadyConnected = "connect is only valid while disconnected or errored"
	ErrConnectionClosed = "connection is closed"
	ErrSessionClosed    = "session already closed"
	ErrDialFailed       = "failed to dial server"
	ErrInvalidServerURL = "invalid server URL"

	// Send errors
	ErrNotConnected   = "send dropped: not connected"
	ErrRateLimited    = "send dropped: rate limit exceeded"
	ErrFailedToEncode = "failed to encode message"
)
