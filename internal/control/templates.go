// Package control implements the Renderer Controller of spec.md §4.7: the
// SOAP state machine driving a Renderer through Stop → SetURI/Insert →
// Play, and the DIDL-Lite/SOAP envelope templates it fills in. The exact
// template strings are grounded on
// original_source/src/openhome/rendercontrol.rs, byte for byte, since
// several renderers are picky about whitespace in the SOAP body.
package control

import "fmt"

const (
	ohInsertTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><s:Envelope s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/" xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><u:Insert xmlns:u="urn:av-openhome-org:service:Playlist:1"><AfterId>0</AfterId><Uri>%s</Uri><Metadata>%s</Metadata></u:Insert></s:Body></s:Envelope>`

	ohPlayTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><s:Envelope s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/" xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><u:Play xmlns:u="urn:av-openhome-org:service:Playlist:1"/></s:Body></s:Envelope>`

	ohDeleteAllTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><s:Envelope s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/" xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><u:DeleteAll xmlns:u="urn:av-openhome-org:service:Playlist:1"/></s:Body></s:Envelope>`

	avSetTransportURITemplate = `<?xml version="1.0" encoding="utf-8"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><u:SetAVTransportURI xmlns:u="urn:schemas-upnp-org:service:AVTransport:1"><InstanceID>0</InstanceID><CurrentURI>%s</CurrentURI><CurrentURIMetaData>%s</CurrentURIMetaData></u:SetAVTransportURI></s:Body></s:Envelope>`

	avPlayTemplate = `<?xml version="1.0" encoding="utf-8"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><u:Play xmlns:u="urn:schemas-upnp-org:service:AVTransport:1"><InstanceID>0</InstanceID><Speed>1</Speed></u:Play></s:Body></s:Envelope>`

	avStopTemplate = `<?xml version="1.0" encoding="utf-8"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><u:Stop xmlns:u="urn:schemas-upnp-org:service:AVTransport:1"><InstanceID>0</InstanceID></u:Stop></s:Body></s:Envelope>`

	didlTemplate = `<DIDL-Lite xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/"><item id="1" parentID="0" restricted="0"><dc:title>swyh-go</dc:title><res bitsPerSample="%s" nrAudioChannels="2" sampleFrequency="%s" protocolInfo="%s" duration="00:00:00" >%s</res><upnp:class>object.item.audioItem.musicTrack</upnp:class></item></DIDL-Lite>`

	l16ProtInfoTemplate  = "http-get:*:audio/L16;rate=%s;channels=2:DLNA.ORG_PN=LPCM"
	l24ProtInfoTemplate  = "http-get:*:audio/L24;rate=%s;channels=2:DLNA.ORG_PN=LPCM"
	wavProtInfo          = "http-get:*:audio/wav:DLNA.ORG_PN=WAV;DLNA.ORG_OP=01;DLNA.ORG_CI=0;DLNA.ORG_FLAGS=03700000000000000000000000000000"
	flacProtInfo         = "http-get:*:audio/flac:DLNA.ORG_PN=FLAC;DLNA.ORG_OP=01;DLNA.ORG_CI=0;DLNA.ORG_FLAGS=01700000000000000000000000000000"
)

// ohInsertBody renders the OpenHome Playlist#Insert SOAP body.
func ohInsertBody(serverURI, didlData string) string {
	return fmt.Sprintf(ohInsertTemplate, serverURI, didlData)
}

// avSetTransportURIBody renders the AVTransport#SetAVTransportURI SOAP body.
func avSetTransportURIBody(serverURI, didlData string) string {
	return fmt.Sprintf(avSetTransportURITemplate, serverURI, didlData)
}
