// Command swyh-go captures the host's default audio output and streams it
// to UPnP/DLNA and OpenHome renderers discovered on the local network.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/swyh-go/swyh-go/internal/audio"
	"github.com/swyh-go/swyh-go/internal/config"
	"github.com/swyh-go/swyh-go/internal/control"
	"github.com/swyh-go/swyh-go/internal/coordinator"
	"github.com/swyh-go/swyh-go/internal/httpserver"
	"github.com/swyh-go/swyh-go/internal/logging"
	"github.com/swyh-go/swyh-go/internal/ssdp"
	"github.com/swyh-go/swyh-go/internal/streaming"
)

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logging.NewCharm(os.Stderr)

	bus := audio.NewBus(cfg.ConsumerQueueDepth)
	capture, err := audio.NewCapture(bus, cfg.SelectedOutputDeviceName, log)
	if err != nil {
		log.Emit(logging.LevelError, "fatal: "+err.Error())
		os.Exit(1)
	}
	if err := capture.Start(); err != nil {
		log.Emit(logging.LevelError, "fatal: "+err.Error())
		os.Exit(1)
	}
	defer capture.Stop()

	var injector *audio.SilenceInjector
	if cfg.InjectSilence {
		injector, err = audio.NewSilenceInjector(capture.WavData().SampleRateHz, log)
		if err != nil {
			log.Emit(logging.LevelError, "silence injector: "+err.Error())
		} else {
			defer injector.Stop()
		}
	}

	if cfg.MonitorRMS {
		rmsConsumer := bus.Register("__rms_monitor__")
		mon := audio.RunRMSMonitor(rmsConsumer, capture.WavData().SampleRateHz)
		go func() {
			for lvl := range mon.Levels() {
				log.Emit(logging.LevelInfo, fmt.Sprintf("rms L=%.4f R=%.4f", lvl.Left, lvl.Right))
			}
		}()
	}

	registry := streaming.NewRegistry(bus)
	feedbackCh := make(chan streaming.Feedback, 64)

	controller := control.NewController(log)
	localIP := cfg.BindAddress
	if localIP == "0.0.0.0" {
		localIP = outboundIP()
	}

	streamInfo := control.StreamInfo{
		SampleRateHz: capture.WavData().SampleRateHz,
		Bits:         cfg.BitDepth,
		Format:       cfg.Format,
	}

	srv := httpserver.New(cfg, bus, registry, capture.WavData(), feedbackCh, log)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Emit(logging.LevelError, "fatal: "+err.Error())
			os.Exit(1)
		}
	}()

	// The listener picks the real port when cfg.HTTPPort == 0; wait for it
	// to be bound before building URLs that reference it.
	httpPort := waitForPort(srv, cfg.HTTPPort)

	coord := coordinator.New(cfg, registry, controller, localIP, httpPort, streamInfo, log)
	go func() {
		for fb := range feedbackCh {
			coord.NotifyFeedback(fb)
		}
	}()
	go func() {
		for r := range coord.Renderers {
			log.Emit(logging.LevelInfo, "discovered renderer: "+r.Label())
		}
	}()

	if cfg.AnnounceMDNS {
		if _, err := ssdp.NewAnnouncer("swyh-go", int(httpPort), log); err != nil {
			log.Emit(logging.LevelError, "mdns announce: "+err.Error())
		}
	}

	known := make(map[string]bool)
	go runSSDPLoop(cfg, localIP, known, coord, log)

	waitForShutdown(log)
	srv.Close()
}

func parseFlags() (*config.Config, error) {
	var (
		bindAddress  = pflag.StringP("bind", "b", "", "local interface address to bind to (default: all interfaces)")
		httpPort     = pflag.Uint16P("port", "p", 5901, "streaming HTTP server port")
		ssdpMinutes  = pflag.Int("ssdp-interval", 10, "SSDP discovery cycle period, in minutes")
		bitDepth     = pflag.Int("bits", 16, "bit depth: 16 or 24")
		format       = pflag.String("format", "raw", "stream format: raw, wav, flac, or rf64")
		noChunked    = pflag.Bool("disable-chunked", false, "advertise a fixed huge Content-Length instead of chunked transfer encoding")
		flacLevel    = pflag.Int("flac-compression", 0, "FLAC compression level, 0-8")
		injectSil    = pflag.Bool("inject-silence", false, "keep a silent output stream open on the host's default output device")
		monitorRMS   = pflag.Bool("monitor-rms", false, "log periodic RMS levels")
		announceMDNS = pflag.Bool("announce", false, "self-announce the stream endpoint over mDNS/DNS-SD")
		autoResume    = pflag.Bool("auto-resume", false, "automatically resume playback after an unexpected disconnect")
		autoReconnect = pflag.Bool("auto-reconnect", false, "automatically replay Play when a renderer matching --last-renderer is rediscovered")
		lastRenderer  = pflag.String("last-renderer", "", "renderer label to match for --auto-reconnect")
		outputDevice  = pflag.String("output-device", "", "host output device name to capture from (default: the host's default device)")
		configFile   = pflag.String("config", "", "optional YAML file overriding the defaults below")
		help         = pflag.Bool("help", false, "display help text")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - stream this machine's audio output to UPnP/DLNA renderers\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nUsage: %s [OPTIONS]\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFile(*configFile, cfg)
		if err != nil {
			return nil, err
		}
	}

	if *bindAddress != "" {
		cfg.BindAddress = *bindAddress
	}
	cfg.HTTPPort = *httpPort
	cfg.SSDPInterval = time.Duration(*ssdpMinutes) * time.Minute
	if *bitDepth == 24 {
		cfg.BitDepth = config.BitDepth24
	} else {
		cfg.BitDepth = config.BitDepth16
	}
	cfg.Format = config.StreamFormat(*format)
	if *noChunked {
		cfg.ChunkedMode = config.ChunkedDisabled
	}
	cfg.FLACCompression = *flacLevel
	cfg.InjectSilence = *injectSil
	cfg.MonitorRMS = *monitorRMS
	cfg.AnnounceMDNS = *announceMDNS
	if *autoResume {
		cfg.AutoResume = *autoResume
	}
	if *autoReconnect {
		cfg.AutoReconnect = *autoReconnect
	}
	if *lastRenderer != "" {
		cfg.LastRendererLabel = *lastRenderer
	}
	if *outputDevice != "" {
		cfg.SelectedOutputDeviceName = *outputDevice
	}

	return cfg, nil
}

// outboundIP picks the local address that would be used to reach the
// network, for building stream URLs when the server was told to bind all
// interfaces.
func outboundIP() string {
	conn, err := net.Dial("udp4", "239.255.255.250:1900")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func waitForPort(srv *httpserver.Server, configured uint16) uint16 {
	if configured != 0 {
		return configured
	}
	for i := 0; i < 100; i++ {
		if addr := srv.Addr(); addr != nil {
			if tcpAddr, ok := addr.(*net.TCPAddr); ok {
				return uint16(tcpAddr.Port)
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return configured
}

func runSSDPLoop(cfg *config.Config, localIP string, known map[string]bool, coord *coordinator.Coordinator, log logging.Sink) {
	ticker := time.NewTicker(cfg.SSDPInterval)
	defer ticker.Stop()

	cycle := func() {
		renderers, err := ssdp.Discover(localIP, known, log)
		if err != nil {
			log.Emit(logging.LevelError, "ssdp discovery: "+err.Error())
			return
		}
		for _, r := range renderers {
			known[r.DescriptionURL] = true
			coord.NotifyRenderer(r)
		}
	}

	cycle()
	for range ticker.C {
		cycle()
	}
}

func waitForShutdown(log logging.Sink) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Emit(logging.LevelInfo, "shutting down")
}
