// Package ssdp implements the renderer discovery cycle of spec.md §4.5:
// hand-rolled raw-UDP M-SEARCH, since SSDP is a distinct wire protocol from
// mDNS/DNS-SD (announce.go wires brutella/dnssd for the self-announcement
// supplement instead, see SPEC_FULL.md §4).
package ssdp

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/swyh-go/swyh-go/internal/logging"
	"github.com/swyh-go/swyh-go/internal/upnp"
)

const (
	multicastAddr = "239.255.255.250:1900"
	searchWindow  = 3100 * time.Millisecond
	multicastTTL  = 2

	stOpenHome    = "urn:av-openhome-org:service:Product:1"
	stAVTransport = "urn:schemas-upnp-org:service:RenderingControl:1"
)

func searchMessage(st string) []byte {
	return []byte(fmt.Sprintf(
		"M-SEARCH * HTTP/1.1\r\nHost: 239.255.255.250:1900\r\nMan: \"ssdp:discover\"\r\nST: %s\r\nMX: 3\r\n\r\n", st))
}

// sighting is one parsed M-SEARCH response.
type sighting struct {
	location string
	st       string
	fromIP   string
}

// Discover runs exactly one SSDP cycle: bind, send both M-SEARCH
// datagrams, collect responses for ~3.1s, classify into the usable set
// (OH first, then AV not already seen as OH), and fetch a Renderer
// descriptor for every URL not already present in known. Errors from
// individual description fetches are logged and skipped, per spec.md §4.5.
func Discover(localIP string, known map[string]bool, log logging.Sink) ([]*upnp.Renderer, error) {
	if log == nil {
		log = logging.Nop{}
	}

	laddr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(localIP, "0"))
	if err != nil {
		return nil, fmt.Errorf("resolving local ssdp address %q: %w", localIP, err)
	}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, fmt.Errorf("binding ssdp socket on %s: %w", localIP, err)
	}
	defer conn.Close()

	if err := tuneSocket(conn); err != nil {
		log.Emit(logging.LevelError, "ssdp socket tuning: "+err.Error())
	}

	raddr, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving multicast address: %w", err)
	}
	for _, st := range []string{stOpenHome, stAVTransport} {
		if _, err := conn.WriteToUDP(searchMessage(st), raddr); err != nil {
			log.Emit(logging.LevelError, "sending M-SEARCH: "+err.Error())
		}
	}

	sightings := collectResponses(conn, log)

	ohSet := map[string]sighting{}
	avSet := map[string]sighting{}
	for _, s := range sightings {
		if strings.Contains(s.st, "Product") {
			ohSet[s.location] = s
		} else if strings.Contains(s.st, "RenderingControl") {
			avSet[s.location] = s
		}
	}

	usable := make([]sighting, 0, len(ohSet)+len(avSet))
	for _, s := range ohSet {
		usable = append(usable, s)
	}
	for loc, s := range avSet {
		if _, already := ohSet[loc]; !already {
			usable = append(usable, s)
		}
	}

	var renderers []*upnp.Renderer
	for _, s := range usable {
		if known[s.location] {
			continue
		}
		r, err := upnp.FetchDescriptor(s.location, s.fromIP)
		if err != nil {
			log.Emit(logging.LevelError, fmt.Sprintf("fetching description %s: %v", s.location, err))
			continue
		}
		if !r.Usable() {
			continue
		}
		renderers = append(renderers, r)
	}
	return renderers, nil
}

// tuneSocket sets IP_MULTICAST_TTL and SO_BROADCAST on conn's underlying
// file descriptor via golang.org/x/sys/unix, matching spec.md §4.5 step 1
// ("Enable broadcast, multicast TTL = 2").
func tuneSocket(conn *net.UDPConn) error {
	sc, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("getting syscall conn: %w", err)
	}
	var sockErr error
	err = sc.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, multicastTTL); e != nil {
			sockErr = fmt.Errorf("setting IP_MULTICAST_TTL: %w", e)
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1); e != nil {
			sockErr = fmt.Errorf("setting SO_BROADCAST: %w", e)
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}

// collectResponses reads SSDP responses until searchWindow has elapsed,
// recomputing the remaining read deadline each iteration (spec.md §4.5 step
// 3). A read-timeout or "would block" error ends collection silently; any
// other read error is logged and reading continues until the window ends.
func collectResponses(conn *net.UDPConn, log logging.Sink) []sighting {
	deadline := time.Now().Add(searchWindow)
	var out []sighting
	buf := make([]byte, 4096)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return out
		}
		conn.SetReadDeadline(time.Now().Add(remaining))

		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if isIgnorableReadError(err) {
				return out
			}
			log.Emit(logging.LevelError, "ssdp read: "+err.Error())
			continue
		}

		if s, ok := parseResponse(buf[:n], from.IP.String()); ok {
			out = append(out, s)
		}
	}
}

// isIgnorableReadError matches spec.md §4.5's "socket read timeout and
// platform-specific would-block codes (10060 on Windows, 11/35 on Unix)".
func isIgnorableReadError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "10060") ||
		strings.Contains(msg, "os error 11") ||
		strings.Contains(msg, "os error 35") ||
		strings.Contains(msg, "i/o timeout")
}

// parseResponse parses one UDP datagram as an HTTP-status-line-plus-headers
// blob, extracting LOCATION and ST (header names matched case-insensitively,
// per spec.md §4.5/§4.6).
func parseResponse(data []byte, fromIP string) (sighting, bool) {
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	if !scanner.Scan() {
		return sighting{}, false
	}
	statusLine := scanner.Text()
	if !strings.HasPrefix(statusLine, "HTTP/1.1 200") {
		return sighting{}, false
	}

	var location, st string
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		switch name {
		case "location":
			location = value
		case "st":
			st = value
		}
	}
	if location == "" || st == "" {
		return sighting{}, false
	}
	return sighting{location: location, st: st, fromIP: fromIP}, true
}
