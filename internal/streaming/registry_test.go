package streaming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swyh-go/swyh-go/internal/audio"
	"github.com/swyh-go/swyh-go/internal/config"
)

func newTestSession(remoteIP string, consumer *audio.Consumer) *Session {
	return NewSession(remoteIP, config.FormatLPCM, config.BitDepth16, 48000, config.ChunkedAuto, 0, consumer, nil, nil)
}

// TestOpenEvictsPriorSessionUnderSameIP is spec.md §8 property 10: one
// session per remote ip, with a second Open replacing the first.
func TestOpenEvictsPriorSessionUnderSameIP(t *testing.T) {
	bus := audio.NewBus(4)
	reg := NewRegistry(bus)

	first := reg.Open("192.168.1.9", func(c *audio.Consumer) *Session { return newTestSession("192.168.1.9", c) })
	require.True(t, reg.Has("192.168.1.9"))

	second := reg.Open("192.168.1.9", func(c *audio.Consumer) *Session { return newTestSession("192.168.1.9", c) })
	assert.NotSame(t, first, second)
	assert.Equal(t, 1, reg.Len(), "only the newest session survives under one ip")

	// The first session's consumer queue is now closed; its Frames()
	// channel drains to closed immediately.
	_, ok := <-first.consumer.Frames()
	assert.False(t, ok)
}

func TestCloseOnlyRemovesCurrentSession(t *testing.T) {
	bus := audio.NewBus(4)
	reg := NewRegistry(bus)

	first := reg.Open("10.0.0.1", func(c *audio.Consumer) *Session { return newTestSession("10.0.0.1", c) })
	second := reg.Open("10.0.0.1", func(c *audio.Consumer) *Session { return newTestSession("10.0.0.1", c) })

	// A stale close referencing the evicted session must not remove the
	// live one.
	reg.Close("10.0.0.1", first)
	assert.True(t, reg.Has("10.0.0.1"))

	reg.Close("10.0.0.1", second)
	assert.False(t, reg.Has("10.0.0.1"))
}

func TestDistinctIPsGetDistinctSessions(t *testing.T) {
	bus := audio.NewBus(4)
	reg := NewRegistry(bus)

	reg.Open("10.0.0.1", func(c *audio.Consumer) *Session { return newTestSession("10.0.0.1", c) })
	reg.Open("10.0.0.2", func(c *audio.Consumer) *Session { return newTestSession("10.0.0.2", c) })

	assert.Equal(t, 2, reg.Len())
}
