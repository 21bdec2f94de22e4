package ssdp

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"

	"github.com/swyh-go/swyh-go/internal/logging"
)

// dnsSDServiceType is the supplemental self-announcement service type
// (SPEC_FULL.md §3), directly modeled on the teacher's
// src/dns_sd.go::DNS_SD_SERVICE constant pattern.
const dnsSDServiceType = "_swyh-go._tcp"

// Announcer self-announces the running HTTP stream endpoint over
// mDNS/DNS-SD so LAN tooling can discover this instance without knowing its
// port in advance. Entirely independent of the SSDP discovery cycle above.
type Announcer struct {
	responder dnssd.Responder
	log       logging.Sink
}

// NewAnnouncer registers a service named name on port and starts
// responding to mDNS queries in a background goroutine. Grounded on
// src/dns_sd.go's dns_sd_announce: build a dnssd.Config, wrap it in a
// Service, add it to a Responder, and run the responder in its own
// goroutine for the life of the process.
func NewAnnouncer(name string, port int, log logging.Sink) (*Announcer, error) {
	if log == nil {
		log = logging.Nop{}
	}
	if name == "" {
		name = "swyh-go"
	}

	cfg := dnssd.Config{Name: name, Type: dnsSDServiceType, Port: port}
	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("building dns-sd service: %w", err)
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("building dns-sd responder: %w", err)
	}
	if _, err := responder.Add(svc); err != nil {
		return nil, fmt.Errorf("registering dns-sd service: %w", err)
	}

	a := &Announcer{responder: responder, log: log}

	go func() {
		if err := a.responder.Respond(context.Background()); err != nil {
			a.log.Emit(logging.LevelError, "dns-sd responder stopped: "+err.Error())
		}
	}()

	return a, nil
}
