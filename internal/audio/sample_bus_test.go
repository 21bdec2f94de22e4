package audio

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestFanOutCorrectness is spec.md §8 property 1: for any N registered
// sessions and any producer burst of K frames with queue capacity Q, each
// session's received count is at most K and Publish never blocks.
func TestFanOutCorrectness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 64).Draw(rt, "n")
		k := rapid.IntRange(0, 200).Draw(rt, "k")
		q := rapid.IntRange(1, 256).Draw(rt, "q")

		bus := NewBus(q)
		consumers := make([]*Consumer, n)
		for i := range consumers {
			consumers[i] = bus.Register(strconv.Itoa(i))
		}

		for i := 0; i < k; i++ {
			bus.Publish(Frame{float32(i)})
		}

		for _, c := range consumers {
			received := len(c.queue) + int(c.Drops())
			if received > k {
				rt.Fatalf("consumer received+dropped %d exceeds burst size %d", received, k)
			}
		}
	})
}

// TestDropOnOverflow is spec.md §8 property 2: with a queue smaller than
// the burst, the drop counter increases monotonically and no frame is lost
// silently (every frame is either queued or counted as a drop).
func TestDropOnOverflow(t *testing.T) {
	bus := NewBus(4)
	c := bus.Register("slow-consumer")

	for i := 0; i < 20; i++ {
		bus.Publish(Frame{float32(i)})
	}

	assert.Equal(t, uint64(16), c.Drops())
	assert.Equal(t, 4, len(c.queue))
}

func TestRegisterEvictsPriorConsumerUnderSameKey(t *testing.T) {
	bus := NewBus(8)
	first := bus.Register("1.2.3.4")
	bus.Register("1.2.3.4")

	select {
	case _, open := <-first.queue:
		assert.False(t, open, "prior consumer's queue should be closed on re-registration")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for prior consumer's queue to close")
	}
}

func TestUnregisterDoesNotCloseNewerRegistration(t *testing.T) {
	bus := NewBus(8)
	first := bus.Register("1.2.3.4")
	second := bus.Register("1.2.3.4")

	// A stale Unregister for the evicted consumer must not tear down the
	// one that replaced it.
	bus.Unregister("1.2.3.4", first)

	bus.Publish(Frame{1, 2})
	select {
	case f, open := <-second.queue:
		require.True(t, open)
		assert.Equal(t, Frame{1, 2}, f)
	case <-time.After(time.Second):
		t.Fatal("expected the surviving consumer to still receive frames")
	}
}
