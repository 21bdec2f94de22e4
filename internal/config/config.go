// Package config holds the read-only runtime configuration shared by every
// component. There is no package-level mutable state here: callers build a
// Config once (from defaults, a YAML file, and CLI flags, in that order) and
// pass it down explicitly, the way src/config.go's misc_config_s is built
// once in the teacher and then threaded through rather than mutated from afar.
package config

import "time"

// BitDepth is the LPCM sample width used when streaming raw or WAV audio.
type BitDepth int

const (
	BitDepth16 BitDepth = 16
	BitDepth24 BitDepth = 24
)

// StreamFormat selects the wire format served at /stream/swyh.<ext>.
type StreamFormat string

const (
	FormatLPCM StreamFormat = "raw"
	FormatWAV  StreamFormat = "wav"
	FormatFLAC StreamFormat = "flac"
	FormatRF64 StreamFormat = "rf64"
)

// ChunkedMode controls the HTTP transfer framing used for a streaming
// response, mirroring the StreamSize variants read out of original_source's
// enums.rs: either let the server negotiate chunked transfer encoding, or
// advertise a fixed, implausibly large Content-Length so renderers that
// refuse chunked transfer keep reading indefinitely.
type ChunkedMode int

const (
	// ChunkedAuto streams with chunked transfer encoding; this is the
	// default and matches conf.disable_chunked == false upstream.
	ChunkedAuto ChunkedMode = iota
	// ChunkedDisabled advertises a huge, fixed Content-Length instead of
	// chunked transfer encoding (conf.disable_chunked == true upstream).
	ChunkedDisabled
)

// Config is the immutable configuration surface every component reads from.
// Nothing in internal/ mutates a Config; cmd/swyh-go builds one at startup
// and hands out pointers (or narrower views) to each component.
type Config struct {
	// Network
	BindAddress  string // local interface address to bind the HTTP server and SSDP socket to
	HTTPPort     uint16 // 0 lets the OS pick an ephemeral port
	SSDPInterval time.Duration // how often to repeat the SSDP discovery cycle

	// Streaming
	BitDepth        BitDepth
	Format          StreamFormat
	ChunkedMode     ChunkedMode
	FLACCompression int // 0-8, see drgolem/go-flac SetCompressionLevel; spec wants 0 for minimum latency

	// Sample Bus
	ConsumerQueueDepth int // per-consumer bounded queue depth before a sample is dropped

	// Supplemented features (see SPEC_FULL.md §3)
	InjectSilence bool // run a second, silent output stream on the host's default output device (not a named capture device)
	MonitorRMS    bool // feed a second Sample Bus consumer that reports RMS levels
	AnnounceMDNS  bool // self-announce the HTTP endpoint over mDNS/DNS-SD

	// Coordinator
	AutoResume    bool   // re-arm a renderer's playback automatically after a feedback Ended event
	AutoReconnect bool   // re-invoke Play when a fresh SSDP sighting's label matches LastRendererLabel
	LastRendererLabel string // renderer.Label() to match against for AutoReconnect, per spec.md §6

	// Renderer selection (populated by the UI/CLI layer, not by discovery)
	AutoReconnectRenderers []string // renderer labels; only the first is used, as the auto-reconnect label when LastRendererLabel is empty

	// Capture device selection
	SelectedOutputDeviceName string // host device name to capture from; empty selects the host default
}

// Default returns the baseline configuration used when no file or flags
// override it, matching the teacher's misc_config_s zero-value-plus-init
// pattern in src/config.go.
func Default() *Config {
	return &Config{
		BindAddress:        "0.0.0.0",
		HTTPPort:           0,
		SSDPInterval:       10 * time.Minute,
		BitDepth:           BitDepth16,
		Format:             FormatLPCM,
		ChunkedMode:        ChunkedAuto,
		FLACCompression:    0,
		ConsumerQueueDepth: 64,
		InjectSilence:      false,
		MonitorRMS:         false,
		AnnounceMDNS:       false,
		AutoResume:         false,
		AutoReconnect:      false,
		LastRendererLabel:  "",
	}
}
