// Package coordinator owns the Renderer registry and the feedback bridge
// described in spec.md §4.8: it is the only component that decides when to
// re-invoke the Renderer Controller on its own initiative (auto-resume,
// auto-reconnect).
package coordinator

import (
	"sync"
	"time"

	"github.com/swyh-go/swyh-go/internal/config"
	"github.com/swyh-go/swyh-go/internal/control"
	"github.com/swyh-go/swyh-go/internal/logging"
	"github.com/swyh-go/swyh-go/internal/streaming"
	"github.com/swyh-go/swyh-go/internal/upnp"
)

// resumeCheckDelay is the "coordinator's next tick" window spec.md §8
// property 9 describes: if the renderer reappears in the ClientRegistry
// (reconnected on its own) within this window, auto-resume does not fire.
const resumeCheckDelay = 500 * time.Millisecond

// Coordinator bridges the three event sources of spec.md §4.8: newly
// discovered Renderers, StreamerFeedback, and (indirectly, via its own
// Play calls) the Renderer Controller.
type Coordinator struct {
	cfg        *config.Config
	registry   *streaming.Registry
	controller *control.Controller
	log        logging.Sink

	localIP   string
	httpPort  uint16
	streamFmt control.StreamInfo

	mu           sync.Mutex
	knownByLoc   map[string]*upnp.Renderer
	knownByIP    map[string]*upnp.Renderer
	lastRenderer string

	Renderers <-chan *upnp.Renderer     // forwarded to a UI/CLI collaborator
	Feedback  <-chan streaming.Feedback // forwarded to a UI/CLI collaborator

	newRenderer chan *upnp.Renderer
	feedback    chan streaming.Feedback
}

// New builds a Coordinator. localIP/httpPort/streamFmt are what Play calls
// build stream URLs from; registry is consulted for the "not currently
// streaming" auto-resume check.
func New(cfg *config.Config, registry *streaming.Registry, controller *control.Controller, localIP string, httpPort uint16, streamFmt control.StreamInfo, log logging.Sink) *Coordinator {
	if log == nil {
		log = logging.Nop{}
	}
	newRenderer := make(chan *upnp.Renderer, 16)
	feedback := make(chan streaming.Feedback, 64)
	return &Coordinator{
		cfg:          cfg,
		registry:     registry,
		controller:   controller,
		log:          log,
		localIP:      localIP,
		httpPort:     httpPort,
		streamFmt:    streamFmt,
		knownByLoc:   make(map[string]*upnp.Renderer),
		knownByIP:    make(map[string]*upnp.Renderer),
		lastRenderer: lastRendererLabel(cfg),
		newRenderer:  newRenderer,
		feedback:     feedback,
		Renderers:    newRenderer,
		Feedback:     feedback,
	}
}

func lastRendererLabel(cfg *config.Config) string {
	if cfg.LastRendererLabel != "" {
		return cfg.LastRendererLabel
	}
	if len(cfg.AutoReconnectRenderers) > 0 {
		return cfg.AutoReconnectRenderers[0]
	}
	return ""
}

// NotifyRenderer is called by the SSDP discoverer for every Renderer a
// cycle produces (new ones only — the caller is expected to dedupe against
// its own known-map per spec.md §4.5 step 5 before calling this).
func (co *Coordinator) NotifyRenderer(r *upnp.Renderer) {
	co.mu.Lock()
	co.knownByLoc[r.DescriptionURL] = r
	co.knownByIP[r.RemoteIP] = r
	autoReconnect := co.cfg.AutoReconnect && r.Label() == co.lastRenderer
	co.mu.Unlock()

	select {
	case co.newRenderer <- r:
	default:
	}

	if autoReconnect {
		co.log.Emit(logging.LevelInfo, "auto-reconnecting to "+r.Label())
		go co.controller.Play(r, co.localIP, co.httpPort, co.streamFmt)
	}
}

// NotifyFeedback is called for every Started/Ended Feedback that a
// streaming.Session sends on its feedback channel (cmd/swyh-go drains that
// channel into this method).
func (co *Coordinator) NotifyFeedback(fb streaming.Feedback) {
	select {
	case co.feedback <- fb:
	default:
	}

	if fb.State == streaming.Started {
		return
	}

	if !co.cfg.AutoResume {
		return
	}

	co.mu.Lock()
	r, known := co.knownByIP[fb.RemoteIP]
	co.mu.Unlock()
	if !known {
		return
	}

	// Give the renderer a window to reconnect on its own (Bubble/Nest
	// Audio, Sonos tear down and immediately reopen their TCP connection);
	// only re-invoke Play if it is still absent from the ClientRegistry
	// after that window, per spec.md §4.8/§8 property 9.
	go func() {
		time.Sleep(resumeCheckDelay)
		if co.registry.Has(fb.RemoteIP) {
			return
		}
		co.log.Emit(logging.LevelInfo, "auto-resuming "+r.Label())
		co.controller.Play(r, co.localIP, co.httpPort, co.streamFmt)
	}()
}
