package control

import (
	"fmt"
	"html"
	"strconv"

	"github.com/swyh-go/swyh-go/internal/config"
)

// StreamInfo mirrors spec.md §3: the parameters a play-invocation carries
// to select an encoder and URL suffix.
type StreamInfo struct {
	SampleRateHz int
	Bits         config.BitDepth
	Format       config.StreamFormat
}

// Ext returns the stream URL's file suffix for this format.
func (si StreamInfo) Ext() string { return string(si.Format) }

// protInfo returns the DLNA protocolInfo string for si, per spec.md §4.7's
// table.
func (si StreamInfo) protInfo() string {
	rate := strconv.Itoa(si.SampleRateHz)
	switch si.Format {
	case config.FormatFLAC:
		return flacProtInfo
	case config.FormatWAV, config.FormatRF64:
		return wavProtInfo
	default:
		if si.Bits == config.BitDepth24 {
			return fmt.Sprintf(l24ProtInfoTemplate, rate)
		}
		return fmt.Sprintf(l16ProtInfoTemplate, rate)
	}
}

// buildDIDL renders the fixed DIDL-Lite template for si and serverURI, then
// HTML-escapes the whole fragment once, per spec.md §4.7: "The DIDL-Lite
// XML is HTML-escaped once before substitution into the outer SOAP
// envelope."
func buildDIDL(si StreamInfo, serverURI string) string {
	raw := fmt.Sprintf(didlTemplate,
		strconv.Itoa(int(si.Bits)),
		strconv.Itoa(si.SampleRateHz),
		si.protInfo(),
		serverURI,
	)
	return html.EscapeString(raw)
}

// StreamURL builds the http://<localIP>:<port>/stream/swyh.<ext> URL the
// renderer is told to fetch, per spec.md §4.7's "URL selection".
func StreamURL(localIP string, port uint16, si StreamInfo) string {
	return fmt.Sprintf("http://%s:%d/stream/swyh.%s", localIP, port, si.Ext())
}
