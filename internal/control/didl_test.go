package control

import (
	"html"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swyh-go/swyh-go/internal/config"
)

func TestProtInfoTable(t *testing.T) {
	lpcm16 := StreamInfo{SampleRateHz: 48000, Bits: config.BitDepth16, Format: config.FormatLPCM}
	assert.Equal(t, "http-get:*:audio/L16;rate=48000;channels=2:DLNA.ORG_PN=LPCM", lpcm16.protInfo())

	lpcm24 := StreamInfo{SampleRateHz: 44100, Bits: config.BitDepth24, Format: config.FormatLPCM}
	assert.Equal(t, "http-get:*:audio/L24;rate=44100;channels=2:DLNA.ORG_PN=LPCM", lpcm24.protInfo())

	wav := StreamInfo{SampleRateHz: 48000, Bits: config.BitDepth16, Format: config.FormatWAV}
	assert.Contains(t, wav.protInfo(), "DLNA.ORG_PN=WAV")

	flac := StreamInfo{SampleRateHz: 48000, Bits: config.BitDepth16, Format: config.FormatFLAC}
	assert.Contains(t, flac.protInfo(), "DLNA.ORG_PN=FLAC")
}

func TestStreamURL(t *testing.T) {
	si := StreamInfo{SampleRateHz: 48000, Bits: config.BitDepth16, Format: config.FormatWAV}
	assert.Equal(t, "http://192.168.1.5:5901/stream/swyh.wav", StreamURL("192.168.1.5", 5901, si))
}

// TestBuildDIDLIsEscapedOnce is spec.md §4.7: the DIDL-Lite fragment is
// HTML-escaped exactly once before being embedded in a SOAP body, so
// unescaping it once yields a well-formed, plain DIDL-Lite XML document.
func TestBuildDIDLIsEscapedOnce(t *testing.T) {
	si := StreamInfo{SampleRateHz: 48000, Bits: config.BitDepth16, Format: config.FormatLPCM}
	escaped := buildDIDL(si, "http://192.168.1.5:5901/stream/swyh.raw")

	assert.NotContains(t, escaped, "<DIDL-Lite", "must be escaped, not raw XML")
	assert.Contains(t, escaped, "&lt;DIDL-Lite")

	unescaped := html.UnescapeString(escaped)
	assert.True(t, strings.HasPrefix(unescaped, "<DIDL-Lite"))
	assert.Contains(t, unescaped, "<dc:title>swyh-go</dc:title>")
	assert.Contains(t, unescaped, "sampleFrequency=\"48000\"")
	assert.Contains(t, unescaped, "bitsPerSample=\"16\"")
	assert.Contains(t, unescaped, "http://192.168.1.5:5901/stream/swyh.raw")
}
