package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/swyh-go/swyh-go/internal/logging"
)

// SilenceInjector keeps a second output stream open on the host's default
// output device, continuously writing equilibrium (zero) samples. It does
// not follow a capture device selected by name. It exists only to stop
// the OS audio engine from going fully idle during true digital silence —
// some renderers (Sonos) interpret idle loopback as a dead source and tear
// the stream down. It never touches the Bus: this is the §9 "renderer-bug
// workaround" note, grounded on original_source's bincommon.rs
// run_silence_injector and adapted from its cpal output-stream-of-zeros
// shape to a portaudio output stream.
type SilenceInjector struct {
	stream *portaudio.Stream
	log    logging.Sink
}

// NewSilenceInjector opens a stereo f32 output stream on the default output
// device and starts writing zero frames. Call Stop to release it.
func NewSilenceInjector(sampleRateHz int, log logging.Sink) (*SilenceInjector, error) {
	if log == nil {
		log = logging.Nop{}
	}
	host, err := portaudio.DefaultHostApi()
	if err != nil {
		return nil, fmt.Errorf("querying default host api: %w", err)
	}
	dev := host.DefaultOutputDevice
	if dev == nil {
		return nil, fmt.Errorf("no default output device available for silence injection")
	}

	params := portaudio.HighLatencyParameters(nil, dev)
	params.Output.Channels = 2
	params.SampleRate = float64(sampleRateHz)

	writeSilence := func(out []float32) {
		for i := range out {
			out[i] = 0
		}
	}

	stream, err := portaudio.OpenStream(params, writeSilence)
	if err != nil {
		return nil, fmt.Errorf("opening silence injector stream: %w", err)
	}

	s := &SilenceInjector{stream: stream, log: log}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("starting silence injector stream: %w", err)
	}
	s.log.Emit(logging.LevelInfo, "silence injector started")
	return s, nil
}

// Stop halts and closes the injector stream.
func (s *SilenceInjector) Stop() error {
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("closing silence injector stream: %w", err)
	}
	return nil
}
