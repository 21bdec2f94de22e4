// Package upnp holds the Renderer data model and the device-description
// fetch/parse step of spec.md §4.6.
package upnp

// Renderer is a discovered UPnP/DLNA media renderer, per spec.md §3.
// Immutable after construction; dropped only by process exit.
type Renderer struct {
	FriendlyName   string
	ModelName      string
	DeviceType     string
	DescriptionURL string
	RemoteIP       string

	OpenHomeControlURL  string
	AVTransportCtrlURL  string
	SupportsOpenHome    bool
	SupportsAVTransport bool

	urlBase string // reconstructed/validated device URLBase, see fixURLBase
}

// DeviceBaseURL returns the "http://host[:port]/" base the Renderer
// Controller should join its relative control URLs against.
func (r Renderer) DeviceBaseURL() string { return r.urlBase }

// Usable reports the invariant from spec.md §3: a Renderer must support at
// least one control plane to be kept.
func (r Renderer) Usable() bool {
	return r.SupportsOpenHome || r.SupportsAVTransport
}

// Label identifies a renderer for auto-reconnect matching (spec.md §4.8's
// "renderer.label"), preferring the friendly name.
func (r Renderer) Label() string {
	if r.FriendlyName != "" {
		return r.FriendlyName
	}
	return r.DescriptionURL
}
