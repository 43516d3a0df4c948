package eventbus

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

// TestPublishOrder verifies handlers run synchronously in subscription order
func TestPublishOrder(t *testing.T) {
	t.Parallel()

	bus := New(nil)
	var got []int

	bus.Subscribe("tick", func(any) { got = append(got, 1) })
	bus.Subscribe("tick", func(any) { got = append(got, 2) })
	bus.Subscribe("tick", func(any) { got = append(got, 3) })

	bus.Publish("tick", nil)

	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("handler calls = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %d, want %d", i, got[i], want[i])
		}
	}
}

// TestPublishData verifies the payload reaches every subscriber unchanged
func TestPublishData(t *testing.T) {
	t.Parallel()

	bus := New(nil)
	var first, second any

	bus.Subscribe("chat", func(data any) { first = data })
	bus.Subscribe("chat", func(data any) { second = data })

	bus.Publish("chat", "hello")

	if first != "hello" || second != "hello" {
		t.Errorf("handlers received %v and %v, want %q for both", first, second, "hello")
	}
}

// TestPanickingHandlerDoesNotStopDelivery verifies a panicking handler is
// recovered, logged, and does not prevent delivery to later subscribers
func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	bus := New(log.New(&buf, "", 0))
	delivered := false

	bus.Subscribe("boom", func(any) { panic("handler exploded") })
	bus.Subscribe("boom", func(any) { delivered = true })

	bus.Publish("boom", nil)

	if !delivered {
		t.Error("second handler was not called after the first panicked")
	}
	if !strings.Contains(buf.String(), "handler exploded") {
		t.Errorf("panic was not logged, log output: %q", buf.String())
	}
}

// TestCancel verifies a cancelled subscription receives no further events
func TestCancel(t *testing.T) {
	t.Parallel()

	bus := New(nil)
	calls := 0

	sub := bus.Subscribe("tick", func(any) { calls++ })
	bus.Publish("tick", nil)
	sub.Cancel()
	bus.Publish("tick", nil)

	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
}

// TestCancelTwice verifies double cancellation is a no-op
func TestCancelTwice(t *testing.T) {
	t.Parallel()

	bus := New(nil)
	sub := bus.Subscribe("tick", func(any) {})
	sub.Cancel()
	sub.Cancel()
}

// TestCancelOneOfMany verifies cancellation only removes its own handler
func TestCancelOneOfMany(t *testing.T) {
	t.Parallel()

	bus := New(nil)
	var aCalls, bCalls int

	subA := bus.Subscribe("tick", func(any) { aCalls++ })
	bus.Subscribe("tick", func(any) { bCalls++ })

	subA.Cancel()
	bus.Publish("tick", nil)

	if aCalls != 0 {
		t.Errorf("cancelled handler calls = %d, want 0", aCalls)
	}
	if bCalls != 1 {
		t.Errorf("remaining handler calls = %d, want 1", bCalls)
	}
}

// TestPublishNoSubscribers verifies publishing without subscribers is safe
func TestPublishNoSubscribers(t *testing.T) {
	t.Parallel()

	bus := New(nil)
	bus.Publish("nobody-listens", 42)
}

// TestSubscribeDuringPublish verifies a handler can subscribe new handlers
// without affecting the in-flight delivery
func TestSubscribeDuringPublish(t *testing.T) {
	t.Parallel()

	bus := New(nil)
	lateCalls := 0

	bus.Subscribe("tick", func(any) {
		bus.Subscribe("tick", func(any) { lateCalls++ })
	})

	bus.Publish("tick", nil)
	if lateCalls != 0 {
		t.Errorf("late handler ran during the publish that registered it, calls = %d", lateCalls)
	}

	bus.Publish("tick", nil)
	if lateCalls != 1 {
		t.Errorf("late handler calls after second publish = %d, want 1", lateCalls)
	}
}
