package control

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swyh-go/swyh-go/internal/config"
	"github.com/swyh-go/swyh-go/internal/upnp"
)

type recordedRequest struct {
	path       string
	soapAction string
	body       string
}

// newFakeRenderer spins up one httptest server that plays both roles a
// renderer's HTTP surface would: a GET on /d.xml returns a synthetic device
// description, and any POST is recorded as a SOAP action. The returned
// Renderer is built through the real FetchDescriptor parse path, so
// DeviceBaseURL() is populated exactly as it would be during discovery.
func newFakeRenderer(t *testing.T, openHome, avTransport bool, requests *[]recordedRequest, failFirstPOST bool) *upnp.Renderer {
	t.Helper()
	var services strings.Builder
	if openHome {
		services.WriteString(`<service><serviceType>urn:av-openhome-org:service:Playlist:1</serviceType><serviceId>urn:av-openhome-org:serviceId:Playlist</serviceId><controlURL>/ctl/Playlist</controlURL></service>`)
	}
	if avTransport {
		services.WriteString(`<service><serviceType>urn:schemas-upnp-org:service:AVTransport:1</serviceType><serviceId>urn:upnp-org:serviceId:AVTransport</serviceId><controlURL>/ctl/AVTransport</controlURL></service>`)
	}
	descXML := `<?xml version="1.0"?><root><device><friendlyName>Test Renderer</friendlyName><deviceType>urn:schemas-upnp-org:device:MediaRenderer:1</deviceType><serviceList>` +
		services.String() + `</serviceList></device></root>`

	postCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(descXML))
			return
		}
		body, _ := io.ReadAll(r.Body)
		*requests = append(*requests, recordedRequest{path: r.URL.Path, soapAction: r.Header.Get("SOAPAction"), body: string(body)})
		postCount++
		if failFirstPOST && postCount == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	r, err := upnp.FetchDescriptor(srv.URL+"/d.xml", "192.168.1.50")
	require.NoError(t, err)
	return r
}

// TestPlayPrefersOpenHome is spec.md §8 property 8: a renderer supporting
// both control planes is driven via OpenHome, never AVTransport.
func TestPlayPrefersOpenHome(t *testing.T) {
	var requests []recordedRequest
	r := newFakeRenderer(t, true, true, &requests, false)

	c := NewController(nil)
	si := StreamInfo{SampleRateHz: 48000, Bits: config.BitDepth16, Format: config.FormatLPCM}

	err := c.Play(r, "192.168.1.5", 5901, si)
	require.NoError(t, err)

	require.Len(t, requests, 3)
	assert.Contains(t, requests[0].soapAction, "Playlist:1#DeleteAll")
	assert.Contains(t, requests[1].soapAction, "Playlist:1#Insert")
	assert.Contains(t, requests[1].body, "<Uri>http://192.168.1.5:5901/stream/swyh.raw</Uri>")
	assert.Contains(t, requests[2].soapAction, "Playlist:1#Play")
}

// TestPlayFallsBackToAVTransport is spec.md §8 E5: when only AVTransport is
// supported, the Stop -> SetAVTransportURI -> Play sequence is used.
func TestPlayFallsBackToAVTransport(t *testing.T) {
	var requests []recordedRequest
	r := newFakeRenderer(t, false, true, &requests, false)

	c := NewController(nil)
	si := StreamInfo{SampleRateHz: 44100, Bits: config.BitDepth16, Format: config.FormatWAV}

	err := c.Play(r, "192.168.1.5", 5901, si)
	require.NoError(t, err)

	require.Len(t, requests, 3)
	assert.Contains(t, requests[0].soapAction, "AVTransport:1#Stop")
	assert.Contains(t, requests[1].soapAction, "AVTransport:1#SetAVTransportURI")
	assert.Contains(t, requests[1].body, "<CurrentURI>http://192.168.1.5:5901/stream/swyh.wav</CurrentURI>")
	assert.Contains(t, requests[2].soapAction, "AVTransport:1#Play")
}

func TestPlayErrorsWithoutAnyControlPlane(t *testing.T) {
	r := &upnp.Renderer{FriendlyName: "Dumb Renderer"}
	c := NewController(nil)
	si := StreamInfo{SampleRateHz: 48000, Bits: config.BitDepth16, Format: config.FormatLPCM}

	err := c.Play(r, "192.168.1.5", 5901, si)
	assert.Error(t, err)
}

// TestSOAPFailureDoesNotAbortSequence is spec.md §7: a failing intermediate
// POST (here, DeleteAll 500s) still lets later steps (Insert, Play) run.
func TestSOAPFailureDoesNotAbortSequence(t *testing.T) {
	var requests []recordedRequest
	r := newFakeRenderer(t, true, false, &requests, true)

	c := NewController(nil)
	si := StreamInfo{SampleRateHz: 48000, Bits: config.BitDepth16, Format: config.FormatLPCM}

	err := c.Play(r, "192.168.1.5", 5901, si)
	require.NoError(t, err)
	require.Len(t, requests, 3, "DeleteAll failure must not prevent Insert/Play from running")
}
