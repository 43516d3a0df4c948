package websocket

import (
	"time"

	"github.com/crateandcrypt/netclient"
)

// Delay returns the reconnect delay for the given zero-based attempt:
// BaseDelay*2^attempt, capped at MaxDelay when a cap is configured. Pure so
// the schedule can be tested without timers.
func Delay(cfg netclient.ReconnectConfig, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := cfg.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if cfg.MaxDelay > 0 && d >= cfg.MaxDelay {
			return cfg.MaxDelay
		}
	}
	if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return d
}
