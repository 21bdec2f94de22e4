package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/swyh-go/swyh-go/internal/logging"
)

// Capture owns the open portaudio stream reading the default output
// device's loopback/monitor, and publishes each callback's frame onto a
// Bus. The non-blocking-send-or-drop shape of the callback itself is
// grounded directly on richinsley-goshadertoy's audio/microphone.go; this
// generalizes that single-channel pattern to the Bus's N-consumer fan-out.
type Capture struct {
	bus    *Bus
	stream *portaudio.Stream
	log    logging.Sink
	wd     WavData

	scratch Frame // reusable scratch buffer; allocated by the callback, regrown only for a larger callback
}

// NewCapture opens an output device in loopback/monitor mode at the
// device's native sample rate, always with 2 channels, matching spec.md §3's
// "established at startup from the capture device's default configuration;
// constant for process lifetime." deviceName selects a specific host device
// by its portaudio Info.Name (selected_output_device_name, spec.md §6); an
// empty deviceName falls back to the host's default input device.
func NewCapture(bus *Bus, deviceName string, log logging.Sink) (*Capture, error) {
	if log == nil {
		log = logging.Nop{}
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	dev, err := selectDevice(deviceName)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	c := &Capture{
		bus: bus,
		log: log,
		wd: WavData{
			SampleFormat: FormatF32,
			SampleRateHz: int(dev.DefaultSampleRate),
			Channels:     2,
		},
	}

	params := portaudio.HighLatencyParameters(dev, nil)
	params.Input.Channels = 2
	params.SampleRate = dev.DefaultSampleRate

	stream, err := portaudio.OpenStream(params, c.callback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("opening capture stream: %w", err)
	}
	c.stream = stream

	return c, nil
}

// selectDevice looks up a device by its exact Info.Name among every host
// api's devices when name is non-empty, returning an error when no device
// matches; an empty name selects the default host api's DefaultInputDevice.
func selectDevice(name string) (*portaudio.DeviceInfo, error) {
	if name != "" {
		devices, err := portaudio.Devices()
		if err != nil {
			return nil, fmt.Errorf("enumerating portaudio devices: %w", err)
		}
		for _, d := range devices {
			if d.Name == name {
				return d, nil
			}
		}
		return nil, fmt.Errorf("no capture device named %q found", name)
	}

	host, err := portaudio.DefaultHostApi()
	if err != nil {
		return nil, fmt.Errorf("querying default host api: %w", err)
	}
	dev := host.DefaultInputDevice
	if dev == nil {
		return nil, fmt.Errorf("no default input (loopback/monitor) device available")
	}
	return dev, nil
}

// WavData reports the fixed capture format for this process.
func (c *Capture) WavData() WavData { return c.wd }

// Start begins delivering frames to the Bus. The callback never blocks; the
// scratch buffer is grown on the first callback to the size portaudio hands
// us, and again only if a later callback is larger.
func (c *Capture) Start() error {
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("starting capture stream: %w", err)
	}
	return nil
}

// Stop closes the stream and releases portaudio. Safe to call once.
func (c *Capture) Stop() error {
	if err := c.stream.Close(); err != nil {
		portaudio.Terminate()
		return fmt.Errorf("closing capture stream: %w", err)
	}
	return portaudio.Terminate()
}

// callback is invoked on the host audio subsystem's real-time thread. It
// copies the incoming interleaved samples into the pre-sized scratch
// buffer, then publishes that buffer as a Frame. The published Frame is a
// fresh slice each time (Go's allocator, not a manual free-list) — spec.md
// §9 allows either "reference-counted snapshot" or "pre-allocated block
// from a free-list"; a fresh small slice per callback is the idiomatic Go
// reading of the former, since the GC already performs the refcounting a
// free-list would hand-rolled here.
func (c *Capture) callback(in []float32) {
	if cap(c.scratch) < len(in) {
		c.scratch = make(Frame, len(in))
	}
	frame := c.scratch[:len(in)]
	copy(frame, in)

	out := make(Frame, len(frame))
	copy(out, frame)
	c.bus.Publish(out)
}
