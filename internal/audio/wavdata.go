// Package audio owns the capture side of the pipeline: the real-time
// callback, the Sample Bus fan-out, and the two optional second-order
// streams (silence injection, RMS monitoring) that ride on top of it.
package audio

// SampleFormat is the native format the capture device reports its frames
// in, established once at startup from the default output device's config.
type SampleFormat int

const (
	FormatF32 SampleFormat = iota
	FormatI16
	FormatU16
)

// WavData describes the capture stream's fixed properties for the lifetime
// of the process, mirroring spec.md §3's WavData and grounded on the
// cpal-device inspection in original_source/src/utils/audiodevices.go.
type WavData struct {
	SampleFormat SampleFormat
	SampleRateHz int
	Channels     int
}
