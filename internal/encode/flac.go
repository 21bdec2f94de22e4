package encode

import (
	"fmt"
	"sync"

	"github.com/drgolem/go-flac/flac"
)

// FlacSession bridges go-flac's push-based encoder (feed samples in,
// receive encoded bytes back through a write callback) to the session's
// pull-based HTTP writer, exactly the shape original_source's
// flacstream.rs FlacChannel gives its dedicated "flac_encoder" thread: a
// goroutine owns the encoder and is the only thing that ever touches it
// (go-flac's FlacEncoder is explicitly not safe for concurrent use).
type FlacSession struct {
	enc *flac.FlacEncoder

	in   chan []float32
	out  chan []byte
	done chan struct{}

	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

// NewFlacSession initializes a FLAC encoder at 24-bit/2-channel/sampleRateHz
// with the given compression level (spec.md §4.2 wants 0, for minimum
// latency) in stream mode, and starts the encoder goroutine. Call Write to
// feed interleaved f32 samples and Bytes to read the channel encoded bytes
// arrive on; call Close when the session ends.
func NewFlacSession(sampleRateHz, compressionLevel int) (*FlacSession, error) {
	enc, err := flac.NewFlacEncoder(sampleRateHz, 2, 24)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	if err := enc.SetCompressionLevel(compressionLevel); err != nil {
		enc.Close()
		return nil, fmt.Errorf("setting flac compression level: %w", err)
	}
	if err := enc.InitStream(); err != nil {
		enc.Close()
		return nil, fmt.Errorf("initializing flac stream encoder: %w", err)
	}

	s := &FlacSession{
		enc:  enc,
		in:   make(chan []float32, 8),
		out:  make(chan []byte, 8),
		done: make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Write enqueues an interleaved f32 sample batch for encoding. Non-blocking
// from the caller's perspective would require a bounded drop policy of its
// own; the session's own queue (the Sample Bus consumer feeding this) is
// already where dropping happens, so Write blocks until the encoder
// goroutine is ready for more, or the session is closed.
func (s *FlacSession) Write(samples []float32) bool {
	select {
	case s.in <- samples:
		return true
	case <-s.done:
		return false
	}
}

// Bytes returns the channel encoded FLAC bytes are delivered on.
func (s *FlacSession) Bytes() <-chan []byte { return s.out }

// Err returns the first error encountered by the encoder goroutine, if any.
func (s *FlacSession) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close stops the encoder goroutine and releases the underlying libFLAC
// encoder. Safe to call more than once.
func (s *FlacSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *FlacSession) run() {
	defer close(s.out)
	defer s.enc.Close()

	var i32buf []int32

	for {
		select {
		case samples, ok := <-s.in:
			if !ok {
				s.finish()
				return
			}
			i32buf = ToInt32s(i32buf[:0], samples, 24)
			if err := s.enc.ProcessInterleaved(i32buf, len(i32buf)/2); err != nil {
				s.setErr(fmt.Errorf("flac encode: %w", err))
				return
			}
			s.drain()
		case <-s.done:
			s.finish()
			return
		}
	}
}

// drain pulls any bytes the write callback has accumulated since the last
// call and forwards them to the output channel, matching
// FlacChannel::run's "receive samples, process, the write callback pushes
// bytes out" loop in the Rust source.
func (s *FlacSession) drain() {
	b := s.enc.TakeBytes()
	if len(b) == 0 {
		return
	}
	select {
	case s.out <- b:
	case <-s.done:
	}
}

func (s *FlacSession) finish() {
	if err := s.enc.Finish(); err != nil {
		s.setErr(fmt.Errorf("flac finish: %w", err))
		return
	}
	s.drain()
}

func (s *FlacSession) setErr(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}
