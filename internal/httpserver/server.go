// Package httpserver implements the streaming HTTP surface of spec.md §4.4:
// a small accept-loop worker pool, method/path routing over
// /stream/swyh.{wav,raw,flac,rf64}, the DLNA header set, and the two
// framing modes (chunked vs fixed huge Content-Length). It speaks raw
// sockets rather than net/http, the way the teacher's server.go does its
// own accept-loop-plus-SO_REUSEADDR TCP handling, because the fixed-huge-
// Content-Length framing mode needs byte-level control net/http's server
// doesn't expose.
package httpserver

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/swyh-go/swyh-go/internal/audio"
	"github.com/swyh-go/swyh-go/internal/config"
	"github.com/swyh-go/swyh-go/internal/logging"
	"github.com/swyh-go/swyh-go/internal/streaming"
)

// numAcceptWorkers mirrors the teacher's run_server, which spins up 2
// threads that both loop on the same listener's incoming_requests().
const numAcceptWorkers = 2

// fixedHugeContentLength is u32::MAX-1, the Content-Length advertised when
// chunked transfer encoding is disabled (spec.md §4.3/§8 E2).
const fixedHugeContentLength uint64 = 0xFFFFFFFE

// Server is the streaming HTTP server. One Server owns one listener, one
// Sample Bus, and one ClientRegistry.
type Server struct {
	cfg      *config.Config
	bus      *audio.Bus
	registry *streaming.Registry
	wd       audio.WavData
	feedback chan<- streaming.Feedback
	log      logging.Sink

	listener net.Listener
}

// New builds a Server; call ListenAndServe to start accepting connections.
func New(cfg *config.Config, bus *audio.Bus, registry *streaming.Registry, wd audio.WavData, feedback chan<- streaming.Feedback, log logging.Sink) *Server {
	if log == nil {
		log = logging.Nop{}
	}
	return &Server{cfg: cfg, bus: bus, registry: registry, wd: wd, feedback: feedback, log: log}
}

// ListenAndServe binds the configured address/port and runs the accept
// loop across numAcceptWorkers goroutines until the listener is closed.
func (s *Server) ListenAndServe() error {
	addr := net.JoinHostPort(s.cfg.BindAddress, strconv.Itoa(int(s.cfg.HTTPPort)))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding streaming http listener on %s: %w", addr, err)
	}
	s.listener = ln
	s.log.Emit(logging.LevelInfo, fmt.Sprintf(
		"streaming server listening on http://%s/stream/swyh.%s", ln.Addr(), extFor(s.cfg.Format)))

	done := make(chan struct{})
	for i := 0; i < numAcceptWorkers; i++ {
		go s.acceptLoop(done)
	}
	<-done // acceptLoop only signals this when Accept returns an error
	return nil
}

// Addr returns the bound address, valid after ListenAndServe has started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) acceptLoop(done chan struct{}) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case done <- struct{}{}:
			default:
			}
			return
		}
		go s.handleConn(conn)
	}
}

func extFor(f config.StreamFormat) string {
	if f == "" {
		return "raw"
	}
	return string(f)
}

// handleConn parses exactly one HTTP request off conn (every renderer
// reconnects per request, matching Connection: close) and routes it.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	remoteAddr := conn.RemoteAddr().String()
	remoteIP := remoteAddr
	if i := strings.Index(remoteIP, ":"); i >= 0 {
		remoteIP = remoteIP[:i]
	}

	br := bufio.NewReader(conn)
	method, target, ok := readRequestLine(br)
	if !ok {
		return
	}
	if err := skipHeaders(br); err != nil {
		return
	}

	path, rawQuery := target, ""
	if i := strings.IndexByte(target, '?'); i >= 0 {
		path, rawQuery = target[:i], target[i+1:]
	}

	format, known := extToFormat(path)
	if !known {
		s.log.Emit(logging.LevelInfo, fmt.Sprintf("unrecognized request %q from %s", target, remoteAddr))
		writeNotFound(conn)
		return
	}

	params := parseStreamParams(rawQuery)
	bits := params.resolveBits(s.cfg.BitDepth)
	chunkedMode := params.resolveChunked(s.cfg.ChunkedMode)

	switch method {
	case "GET":
		s.handleGet(conn, remoteAddr, remoteIP, format, bits, chunkedMode)
	case "HEAD":
		s.handleHead(conn, format, bits)
	case "POST":
		s.handlePost(conn)
	default:
		writeNotFound(conn)
	}
}

func (s *Server) handleGet(conn net.Conn, remoteAddr, remoteIP string, format config.StreamFormat, bits config.BitDepth, chunkedMode config.ChunkedMode) {
	s.log.Emit(logging.LevelInfo, fmt.Sprintf("received GET request from %s", remoteAddr))

	sess := s.registry.Open(remoteIP, func(consumer *audio.Consumer) *streaming.Session {
		return streaming.NewSession(remoteIP, format, bits, s.wd.SampleRateHz, chunkedMode, s.cfg.FLACCompression, consumer, s.feedback, s.log)
	})
	defer s.registry.Close(remoteIP, sess)

	headers := defaultHeaders()
	headers = append(headers, [2]string{"Content-Type", contentType(format, bits, s.wd.SampleRateHz)})
	headers = append(headers, [2]string{"TransferMode.DLNA.ORG", "Streaming"})

	if chunkedMode == config.ChunkedDisabled {
		headers = append(headers, [2]string{"Content-Length", strconv.FormatUint(fixedHugeContentLength, 10)})
		writeStatusAndHeaders(conn, 200, headers)
		sess.WriteTo(conn)
		return
	}

	headers = append(headers, [2]string{"Transfer-Encoding", "chunked"})
	writeStatusAndHeaders(conn, 200, headers)
	cw := chunkedWriter{w: conn}
	if err := sess.WriteTo(cw); err == nil {
		cw.close()
	}
}

func (s *Server) handleHead(conn net.Conn, format config.StreamFormat, bits config.BitDepth) {
	headers := defaultHeaders()
	headers = append(headers, [2]string{"Content-Type", contentType(format, bits, s.wd.SampleRateHz)})
	headers = append(headers, [2]string{"TransferMode.DLNA.ORG", "Streaming"})
	writeStatusAndHeaders(conn, 200, headers)
}

func (s *Server) handlePost(conn net.Conn) {
	writeStatusAndHeaders(conn, 200, defaultHeaders())
}

func defaultHeaders() [][2]string {
	return [][2]string{
		{"Connection", "close"},
		{"Server", "UPnP/1.0 DLNADOC/1.50 LAB/1.0"},
		{"icy-name", "swyh-rs"},
	}
}

func writeNotFound(conn net.Conn) {
	writeStatusAndHeaders(conn, 404, defaultHeaders())
}

func writeStatusAndHeaders(conn net.Conn, status int, headers [][2]string) {
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	fmt.Fprintf(conn, "HTTP/1.1 %d %s\r\n", status, statusText(status))
	for _, h := range headers {
		fmt.Fprintf(conn, "%s: %s\r\n", h[0], h[1])
	}
	conn.Write([]byte("\r\n"))
	conn.SetWriteDeadline(time.Time{})
}

func statusText(status int) string {
	switch status {
	case 200:
		return "OK"
	case 404:
		return "Not Found"
	default:
		return "Unknown"
	}
}

func readRequestLine(br *bufio.Reader) (method, target string, ok bool) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", "", false
	}
	line = strings.TrimRight(line, "\r\n")
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func skipHeaders(br *bufio.Reader) error {
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return err
		}
		if strings.TrimRight(line, "\r\n") == "" {
			return nil
		}
	}
}
