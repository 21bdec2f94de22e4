package coordinator

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swyh-go/swyh-go/internal/audio"
	"github.com/swyh-go/swyh-go/internal/config"
	"github.com/swyh-go/swyh-go/internal/control"
	"github.com/swyh-go/swyh-go/internal/streaming"
	"github.com/swyh-go/swyh-go/internal/upnp"
)

const fakeAVTransportDescription = `<?xml version="1.0"?><root><device><friendlyName>Kitchen</friendlyName><deviceType>urn:schemas-upnp-org:device:MediaRenderer:1</deviceType><serviceList><service><serviceType>urn:schemas-upnp-org:service:AVTransport:1</serviceType><serviceId>urn:upnp-org:serviceId:AVTransport</serviceId><controlURL>/ctl/AVTransport</controlURL></service></serviceList></device></root>`

func newFakeAVRenderer(t *testing.T) (*upnp.Renderer, *int32counter) {
	t.Helper()
	counter := &int32counter{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(fakeAVTransportDescription))
			return
		}
		io.ReadAll(r.Body)
		counter.inc()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	r, err := upnp.FetchDescriptor(srv.URL+"/d.xml", "192.168.1.77")
	require.NoError(t, err)
	return r, counter
}

type int32counter struct{ n atomic.Int32 }

func (c *int32counter) inc() { c.n.Add(1) }

func testStreamInfo() control.StreamInfo {
	return control.StreamInfo{SampleRateHz: 48000, Bits: config.BitDepth16, Format: config.FormatLPCM}
}

// TestAutoResumeFiresWhenStillAbsentAfterDelay is spec.md §8 property 9:
// on Ended feedback for a known renderer not back in the ClientRegistry
// after the resume-check window, the Controller replays Play.
func TestAutoResumeFiresWhenStillAbsentAfterDelay(t *testing.T) {
	r, calls := newFakeAVRenderer(t)

	cfg := config.Default()
	cfg.AutoResume = true
	bus := audio.NewBus(4)
	registry := streaming.NewRegistry(bus)
	controller := control.NewController(nil)

	co := New(cfg, registry, controller, "192.168.1.5", 5901, testStreamInfo(), nil)
	co.NotifyRenderer(r)

	co.NotifyFeedback(streaming.Feedback{RemoteIP: r.RemoteIP, State: streaming.Ended})

	require.Eventually(t, func() bool { return calls.n.Load() == 3 }, 2*time.Second, 10*time.Millisecond,
		"expected a full Stop/SetAVTransportURI/Play replay after the resume window")
}

// TestAutoResumeSkippedIfRendererReconnectedOnItsOwn is spec.md §8 property
// 9's converse: if the renderer is already back in the ClientRegistry
// before the delay elapses, Play must not be replayed.
func TestAutoResumeSkippedIfRendererReconnectedOnItsOwn(t *testing.T) {
	r, calls := newFakeAVRenderer(t)

	cfg := config.Default()
	cfg.AutoResume = true
	bus := audio.NewBus(4)
	registry := streaming.NewRegistry(bus)
	controller := control.NewController(nil)

	co := New(cfg, registry, controller, "192.168.1.5", 5901, testStreamInfo(), nil)
	co.NotifyRenderer(r)

	registry.Open(r.RemoteIP, func(c *audio.Consumer) *streaming.Session {
		return streaming.NewSession(r.RemoteIP, config.FormatLPCM, config.BitDepth16, 48000, config.ChunkedAuto, 0, c, nil, nil)
	})

	co.NotifyFeedback(streaming.Feedback{RemoteIP: r.RemoteIP, State: streaming.Ended})

	time.Sleep(750 * time.Millisecond)
	assert.Equal(t, int32(0), calls.n.Load(), "renderer reconnected on its own, no replay expected")
}

// TestAutoReconnectGatedOnItsOwnFlag is spec.md §4.8/§6: auto_reconnect is a
// flag independent of auto_resume, matched against last_renderer_label.
func TestAutoReconnectGatedOnItsOwnFlag(t *testing.T) {
	r, calls := newFakeAVRenderer(t)

	cfg := config.Default()
	cfg.AutoResume = true // must NOT by itself enable auto-reconnect
	cfg.LastRendererLabel = r.Label()
	bus := audio.NewBus(4)
	registry := streaming.NewRegistry(bus)
	controller := control.NewController(nil)

	co := New(cfg, registry, controller, "192.168.1.5", 5901, testStreamInfo(), nil)
	co.NotifyRenderer(r)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), calls.n.Load(), "auto_resume alone must not trigger auto-reconnect")
}

func TestAutoReconnectFiresOnMatchingLabel(t *testing.T) {
	r, calls := newFakeAVRenderer(t)

	cfg := config.Default()
	cfg.AutoReconnect = true
	cfg.LastRendererLabel = r.Label()
	bus := audio.NewBus(4)
	registry := streaming.NewRegistry(bus)
	controller := control.NewController(nil)

	co := New(cfg, registry, controller, "192.168.1.5", 5901, testStreamInfo(), nil)
	co.NotifyRenderer(r)

	require.Eventually(t, func() bool { return calls.n.Load() == 3 }, 2*time.Second, 10*time.Millisecond,
		"expected a Stop/SetAVTransportURI/Play replay on matching auto-reconnect")
}

func TestAutoResumeDisabledByConfig(t *testing.T) {
	r, calls := newFakeAVRenderer(t)

	cfg := config.Default()
	cfg.AutoResume = false
	bus := audio.NewBus(4)
	registry := streaming.NewRegistry(bus)
	controller := control.NewController(nil)

	co := New(cfg, registry, controller, "192.168.1.5", 5901, testStreamInfo(), nil)
	co.NotifyRenderer(r)
	co.NotifyFeedback(streaming.Feedback{RemoteIP: r.RemoteIP, State: streaming.Ended})

	time.Sleep(750 * time.Millisecond)
	assert.Equal(t, int32(0), calls.n.Load())
}
