package netclient

import (
	"log"
	"time"

	"golang.org/x/time/rate"
)

// ReconnectConfig bounds the automatic retry policy after an unclean close.
// Delay for attempt n is BaseDelay*2^n, capped at MaxDelay. After MaxAttempts
// the client stays disconnected until a manual Connect.
type ReconnectConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RateLimitConfig defines the token-bucket limit applied to outbound sends.
// A rate-limited send is dropped and reported as a failed send; nothing is
// queued.
type RateLimitConfig struct {
	// MessagesPerSecond defines how many messages the client may send per second
	MessagesPerSecond rate.Limit
	// Burst defines the maximum burst size (token bucket capacity)
	Burst int
	// Enabled determines if rate limiting is active
	Enabled bool
}

// DefaultRateLimitConfig returns the default outbound rate limit.
// Allows 60 messages per second with burst of 120, comfortably above the
// 10 Hz update cadence while still catching runaway callers.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MessagesPerSecond: 60,
		Burst:             120,
		Enabled:           true,
	}
}

// NoRateLimit returns a configuration with outbound rate limiting disabled.
func NoRateLimit() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled: false,
	}
}

// Config carries every tunable of the session. Zero values are filled in from
// DefaultConfig by client.New.
type Config struct {
	// ServerURL is the WebSocket endpoint, e.g. "ws://localhost:8080/ws".
	ServerURL string

	// PlayerID is the identity sent as the playerId query parameter. Empty
	// means the server assigns one in the Join welcome.
	PlayerID string

	// RoomID is the room to join, sent as the roomId query parameter. Empty
	// together with CreateRoom requests a fresh room.
	RoomID string

	// CreateRoom asks the server to create a new room on join.
	CreateRoom bool

	Reconnect ReconnectConfig
	RateLimit *RateLimitConfig

	// HeartbeatInterval is the cadence of application-level Ping envelopes
	// while connected. Missing Pong replies are recorded in diagnostics but
	// do not tear the connection down.
	HeartbeatInterval time.Duration

	// IdleWindow is how long a remote entity keeps its moving flag after its
	// last PlayerUpdate.
	IdleWindow time.Duration

	// TickInterval drives the outbound throttler and the idle sweep,
	// independent of render frame rate.
	TickInterval time.Duration

	// PositionThreshold and YawThreshold are the minimum deltas that trigger
	// an outbound PlayerUpdate. Below both, nothing is sent.
	PositionThreshold float64
	YawThreshold      float64

	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration

	// Logger receives connection and protocol diagnostics. Defaults to
	// log.Default().
	Logger *log.Logger
}

// DefaultConfig returns the configuration matching the original system:
// 5 s heartbeat, 100 ms idle window and network tick, exponential backoff
// from 1 s capped at 30 s over 5 attempts.
func DefaultConfig() *Config {
	return &Config{
		ServerURL: "ws://localhost:8080/ws",
		Reconnect: ReconnectConfig{
			MaxAttempts: 5,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		RateLimit:         DefaultRateLimitConfig(),
		HeartbeatInterval: 5 * time.Second,
		IdleWindow:        100 * time.Millisecond,
		TickInterval:      100 * time.Millisecond,
		PositionThreshold: 0.01,
		YawThreshold:      0.01,
		HandshakeTimeout:  5 * time.Second,
		Logger:            log.Default(),
	}
}
