package upnp

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// descriptionHTTPClient is shared across description fetches; a 5s timeout
// keeps one unreachable device from stalling an entire discovery cycle.
var descriptionHTTPClient = &http.Client{Timeout: 5 * time.Second}

type pendingService struct {
	serviceType string
	serviceID   string
	controlURL  string
}

// FetchDescriptor issues the GET described in spec.md §4.6 against
// locationURL, parses the response as an XML event stream, and returns a
// Renderer with remoteIP set from the SSDP response's sender address (never
// from anything inside the XML, per spec.md §4.6's closing sentence).
func FetchDescriptor(locationURL, remoteIP string) (*Renderer, error) {
	req, err := http.NewRequest(http.MethodGet, locationURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building description request for %s: %w", locationURL, err)
	}
	req.Header.Set("User-Agent", "swyh-rs-Rust")
	req.Header.Set("Content-Type", "text/xml")

	resp, err := descriptionHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching description %s: %w", locationURL, err)
	}
	defer resp.Body.Close()

	r := &Renderer{DescriptionURL: locationURL, RemoteIP: remoteIP}

	dec := xml.NewDecoder(resp.Body)
	var curElem string
	var inService bool
	var svc pendingService
	var urlBase string

	for {
		tok, err := dec.Token()
		if err != nil {
			break // EOF or malformed trailing content; use whatever we parsed so far
		}
		switch t := tok.(type) {
		case xml.StartElement:
			curElem = t.Name.Local
			if curElem == "service" {
				inService = true
				svc = pendingService{}
			}
		case xml.EndElement:
			if t.Name.Local == "service" && inService {
				applyService(r, svc)
				inService = false
			}
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			switch {
			case strings.Contains(curElem, "serviceType"):
				svc.serviceType = text
			case strings.Contains(curElem, "serviceId"):
				svc.serviceID = text
			case strings.Contains(curElem, "controlURL"):
				svc.controlURL = text
			case strings.Contains(curElem, "modelName"):
				r.ModelName = text
			case strings.Contains(curElem, "friendlyName"):
				r.FriendlyName = text
			case !inService && strings.Contains(curElem, "deviceType"):
				r.DeviceType = text
			case strings.Contains(curElem, "URLBase"):
				urlBase = text
			}
		}
	}

	fixControlURLs(r)
	fixURLBase(r, urlBase, locationURL)

	return r, nil
}

// applyService implements spec.md §4.6's assignment rules: a service whose
// serviceId matches the OpenHome Playlist rule is recorded as OpenHome and
// not also checked for AVTransport. A device listing both services gets
// both control URLs and both capability flags.
func applyService(r *Renderer, svc pendingService) {
	switch {
	case strings.Contains(svc.serviceID, "Playlist") && strings.Contains(svc.serviceID, "urn:av-openhome-org:service"):
		r.OpenHomeControlURL = svc.controlURL
		r.SupportsOpenHome = true
	case strings.Contains(svc.serviceID, "AVTransport"):
		r.AVTransportCtrlURL = svc.controlURL
		r.SupportsAVTransport = true
	}
}

// fixControlURLs applies the Harman-Kardon leading-slash fix-up from
// spec.md §4.6.
func fixControlURLs(r *Renderer) {
	if r.OpenHomeControlURL != "" && !strings.HasPrefix(r.OpenHomeControlURL, "/") {
		r.OpenHomeControlURL = "/" + r.OpenHomeControlURL
	}
	if r.AVTransportCtrlURL != "" && !strings.HasPrefix(r.AVTransportCtrlURL, "/") {
		r.AVTransportCtrlURL = "/" + r.AVTransportCtrlURL
	}
}

// fixURLBase reconstructs a missing or inconsistent URLBase from the
// discovery LOCATION url, per spec.md §4.6. The result is kept in
// Renderer's unexported urlBase field (there is no exported URLBase field)
// and exposed via DeviceBaseURL for the controller to build absolute
// control URLs from.
func fixURLBase(r *Renderer, urlBase, locationURL string) {
	loc, err := url.Parse(locationURL)
	if err != nil {
		r.urlBase = urlBase
		return
	}
	if urlBase == "" || !strings.Contains(locationURL, urlBase) {
		r.urlBase = fmt.Sprintf("%s://%s/", loc.Scheme, loc.Host)
		return
	}
	r.urlBase = urlBase
}
