package control

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/swyh-go/swyh-go/internal/logging"
	"github.com/swyh-go/swyh-go/internal/upnp"
)

// avPlayGapDelay is the pause between SetAVTransportURI and Play, giving
// devices that HEAD-probe the stream URL first a chance to do so, per
// spec.md §4.7.
const avPlayGapDelay = 100 * time.Millisecond

var soapHTTPClient = &http.Client{Timeout: 5 * time.Second}

// Controller drives renderers through their SOAP play/stop sequences.
type Controller struct {
	log logging.Sink
}

// NewController builds a Controller; log may be nil.
func NewController(log logging.Sink) *Controller {
	if log == nil {
		log = logging.Nop{}
	}
	return &Controller{log: log}
}

// Play performs the sequence of spec.md §4.7: OpenHome is preferred when a
// Renderer supports both. A SOAP POST failure is logged and the step is
// skipped (subsequent steps still run); a template-formatting failure
// aborts and returns an error — here that only happens if StreamURL/DIDL
// construction itself fails, which it structurally cannot, so this mostly
// documents the contract for callers.
func (c *Controller) Play(r *upnp.Renderer, localIP string, port uint16, si StreamInfo) error {
	serverURI := StreamURL(localIP, port, si)
	didl := buildDIDL(si, serverURI)

	switch {
	case r.SupportsOpenHome:
		return c.playOpenHome(r, serverURI, didl)
	case r.SupportsAVTransport:
		return c.playAVTransport(r, serverURI, didl)
	default:
		return fmt.Errorf("renderer %q supports neither OpenHome nor AVTransport", r.Label())
	}
}

// Stop implements spec.md §4.7's Stop rule: OpenHome DeleteAll if
// supported, else AVTransport Stop.
func (c *Controller) Stop(r *upnp.Renderer) error {
	if r.SupportsOpenHome {
		return c.post(r.DeviceBaseURL()+trimLeadingSlash(r.OpenHomeControlURL), "Playlist", "DeleteAll", ohDeleteAllTemplate)
	}
	if r.SupportsAVTransport {
		return c.post(r.DeviceBaseURL()+trimLeadingSlash(r.AVTransportCtrlURL), "AVTransport", "Stop", avStopTemplate)
	}
	return fmt.Errorf("renderer %q supports neither OpenHome nor AVTransport", r.Label())
}

func (c *Controller) playOpenHome(r *upnp.Renderer, serverURI, didl string) error {
	url := r.DeviceBaseURL() + trimLeadingSlash(r.OpenHomeControlURL)
	c.tryPost(url, "Playlist", "DeleteAll", ohDeleteAllTemplate)
	c.tryPost(url, "Playlist", "Insert", ohInsertBody(serverURI, didl))
	c.tryPost(url, "Playlist", "Play", ohPlayTemplate)
	return nil
}

func (c *Controller) playAVTransport(r *upnp.Renderer, serverURI, didl string) error {
	url := r.DeviceBaseURL() + trimLeadingSlash(r.AVTransportCtrlURL)
	c.tryPost(url, "AVTransport", "Stop", avStopTemplate)
	c.tryPost(url, "AVTransport", "SetAVTransportURI", avSetTransportURIBody(serverURI, didl))
	time.Sleep(avPlayGapDelay)
	c.tryPost(url, "AVTransport", "Play", avPlayTemplate)
	return nil
}

// tryPost performs a SOAP POST and logs+swallows any failure, per spec.md
// §7/§4.7's "any SOAP POST failure is logged and the step is skipped;
// subsequent steps still execute."
func (c *Controller) tryPost(url, service, action, body string) {
	if err := c.post(url, service, action, body); err != nil {
		c.log.Emit(logging.LevelError, fmt.Sprintf("soap %s#%s to %s failed: %v", service, action, url, err))
	}
}

func (c *Controller) post(url, service, action, body string) error {
	soapAction := fmt.Sprintf("urn:%s:service:%s:1#%s", soapURNPrefix(service), service, action)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		return fmt.Errorf("building soap request: %w", err)
	}
	req.Header.Set("Connection", "close")
	req.Header.Set("User-Agent", "swyh-rs-Rust/0.x")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("SOAPAction", `"`+soapAction+`"`)
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)

	resp, err := soapHTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting soap action: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("soap action returned status %d", resp.StatusCode)
	}
	return nil
}

func soapURNPrefix(service string) string {
	if service == "Playlist" {
		return "av-openhome-org"
	}
	return "schemas-upnp-org"
}

func trimLeadingSlash(s string) string {
	// control URLs are always stored with a leading slash (see
	// upnp.fixControlURLs); this just documents that DeviceBaseURL already
	// ends in "/" so the two concatenate without doubling the separator.
	if len(s) > 0 && s[0] == '/' {
		return s[1:]
	}
	return s
}
