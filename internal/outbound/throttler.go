// Package outbound samples the local avatar on a fixed tick and sends a
// PlayerUpdate only when the transform changed enough to matter. The tick is
// independent of render frame rate; a stationary avatar produces no traffic.
package outbound

import (
	"math"

	"github.com/crateandcrypt/netclient"
	"github.com/crateandcrypt/netclient/protocol"
)

// SendFunc writes one PlayerUpdate. It reports whether the write happened;
// the throttler does not retry failed sends.
type SendFunc func(pos protocol.Position, yaw float64) bool

// Throttler suppresses outbound updates below the change thresholds.
//
// The snapshot is updated after every attempted send even when the send
// failed, so a drop leaves the client believing it is synchronized until the
// avatar moves again. This mirrors the original system's behavior and is kept
// intentionally.
type Throttler struct {
	input netclient.InputSource
	send  SendFunc

	posThreshold float64
	yawThreshold float64

	lastPosition protocol.Position
	lastYaw      float64
}

func New(input netclient.InputSource, send SendFunc, posThreshold, yawThreshold float64) *Throttler {
	return &Throttler{
		input:        input,
		send:         send,
		posThreshold: posThreshold,
		yawThreshold: yawThreshold,
	}
}

// Tick samples the local avatar and sends an update when the positional
// distance or yaw delta since the last attempted send exceeds the threshold.
func (t *Throttler) Tick() {
	if t.input == nil {
		return
	}
	pos, yaw := t.input.Sample()

	if distance(pos, t.lastPosition) < t.posThreshold && math.Abs(yaw-t.lastYaw) < t.yawThreshold {
		return
	}

	t.send(pos, yaw)
	t.lastPosition = pos
	t.lastYaw = yaw
}

func distance(a, b protocol.Position) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
