package httpserver

import (
	"strconv"
	"strings"

	"github.com/swyh-go/swyh-go/internal/config"
)

// extToFormat maps the four stream URL suffixes spec.md §4.4/§6 names to a
// config.StreamFormat. The second return value is false for any other path.
func extToFormat(path string) (config.StreamFormat, bool) {
	switch {
	case strings.HasSuffix(path, "/stream/swyh.wav"):
		return config.FormatWAV, true
	case strings.HasSuffix(path, "/stream/swyh.raw"):
		return config.FormatLPCM, true
	case strings.HasSuffix(path, "/stream/swyh.flac"):
		return config.FormatFLAC, true
	case strings.HasSuffix(path, "/stream/swyh.rf64"):
		return config.FormatRF64, true
	default:
		return "", false
	}
}

// contentType returns the Content-Type header value for a given format and
// bit depth, per spec.md §4.4's table.
func contentType(format config.StreamFormat, bits config.BitDepth, sampleRateHz int) string {
	switch format {
	case config.FormatWAV, config.FormatRF64:
		return "audio/vnd.wave;codec=1"
	case config.FormatFLAC:
		return "audio/flac"
	default:
		if bits == config.BitDepth24 {
			return "audio/L24;rate=" + strconv.Itoa(sampleRateHz) + ";channels=2"
		}
		return "audio/L16;rate=" + strconv.Itoa(sampleRateHz) + ";channels=2"
	}
}
