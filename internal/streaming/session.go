package streaming

import (
	"io"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/swyh-go/swyh-go/internal/audio"
	"github.com/swyh-go/swyh-go/internal/config"
	"github.com/swyh-go/swyh-go/internal/encode"
	"github.com/swyh-go/swyh-go/internal/logging"
)

// startedAtLayout is the strftime pattern used to format a Session's
// StartedAt for its "stream started" log line, the same strftime.Format call
// the teacher uses for saved-audio filenames in src/xmit.go and src/tq.go,
// just against a fixed layout rather than a user-configurable one.
const startedAtLayout = "%Y-%m-%d %H:%M:%S"

func formatStartedAt(t time.Time) string {
	s, err := strftime.Format(startedAtLayout, t)
	if err != nil {
		return t.Format("2006-01-02 15:04:05")
	}
	return s
}

// Session is one HTTP response body streamed to one renderer: it pulls
// Frames from its Sample Bus Consumer, encodes them per its Format/Bits,
// and writes the result to the underlying connection, per spec.md §4.3.
type Session struct {
	RemoteIP     string
	Format       config.StreamFormat
	Bits         config.BitDepth
	SampleRateHz int
	Chunked      config.ChunkedMode // selects the WAV/RF64 header's embedded size, see riffHeader
	StartedAt    time.Time

	flacCompression int // 0-8, passed straight to encode.NewFlacSession

	consumer *audio.Consumer
	feedback chan<- Feedback
	log      logging.Sink

	headerPending bool // WAV/RF64 only: the RIFF prelude has not been written yet
	flac          *encode.FlacSession
}

// NewSession constructs a session bound to consumer, ready to be run via
// WriteTo. chunked selects the size embedded in a WAV/RF64 header's RIFF
// prelude (spec.md §8 property 4); flacCompression is forwarded to the
// FLAC encoder, unused for other formats. feedback receives Started/Ended
// transitions; it may be nil.
func NewSession(remoteIP string, format config.StreamFormat, bits config.BitDepth, sampleRateHz int, chunked config.ChunkedMode, flacCompression int, consumer *audio.Consumer, feedback chan<- Feedback, log logging.Sink) *Session {
	if log == nil {
		log = logging.Nop{}
	}
	s := &Session{
		RemoteIP:        remoteIP,
		Format:          format,
		Bits:            bits,
		SampleRateHz:    sampleRateHz,
		Chunked:         chunked,
		StartedAt:       time.Now(),
		flacCompression: flacCompression,
		consumer:        consumer,
		feedback:        feedback,
		log:             log,
		headerPending:   format == config.FormatWAV || format == config.FormatRF64,
	}
	return s
}

// WriteTo streams frames to w until the consumer's queue is closed (the
// session was evicted) or a write fails (the renderer disconnected). It
// always ends by sending a Feedback{Ended}; the first successful write
// triggers a Feedback{Started}. Matches spec.md §4.3's lifecycle exactly.
func (s *Session) WriteTo(w io.Writer) error {
	defer s.emit(Ended)
	defer s.closeEncoder()

	started := false
	buf := make([]byte, 0, 8192)

	for frame := range s.consumer.Frames() {
		buf = buf[:0]

		if s.headerPending {
			buf = append(buf, s.riffHeader()...)
			s.headerPending = false
		}

		var err error
		buf, err = s.encode(buf, frame)
		if err != nil {
			s.log.Emit(logging.LevelError, "encoding error for "+s.RemoteIP+": "+err.Error())
			continue
		}

		if len(buf) == 0 {
			continue
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
		if !started {
			s.emit(Started)
			started = true
			s.log.Emit(logging.LevelInfo, "streaming to "+s.RemoteIP+" started at "+formatStartedAt(s.StartedAt))
		}
	}
	return nil
}

func (s *Session) riffHeader() []byte {
	bits := int(s.Bits)
	chunked := s.Chunked != config.ChunkedDisabled
	if s.Format == config.FormatRF64 {
		return encode.RF64Header(s.SampleRateHz, bits, chunked)
	}
	return encode.WAVHeader(s.SampleRateHz, bits, chunked)
}

func (s *Session) encode(dst []byte, frame audio.Frame) ([]byte, error) {
	switch s.Format {
	case config.FormatLPCM:
		if s.Bits == config.BitDepth24 {
			return encode.LPCM24BE(dst, frame), nil
		}
		return encode.LPCM16BE(dst, frame), nil
	case config.FormatWAV, config.FormatRF64:
		if s.Bits == config.BitDepth24 {
			return encode.LPCM24LE(dst, frame), nil
		}
		return encode.LPCM16LE(dst, frame), nil
	case config.FormatFLAC:
		return s.encodeFLAC(dst, frame)
	default:
		return encode.LPCM16BE(dst, frame), nil
	}
}

func (s *Session) encodeFLAC(dst []byte, frame audio.Frame) ([]byte, error) {
	if s.flac == nil {
		fs, err := encode.NewFlacSession(s.SampleRateHz, s.flacCompression)
		if err != nil {
			return dst, err
		}
		s.flac = fs
	}
	s.flac.Write(frame)
	for {
		select {
		case b, ok := <-s.flac.Bytes():
			if !ok {
				return dst, s.flac.Err()
			}
			dst = append(dst, b...)
		default:
			return dst, nil
		}
	}
}

func (s *Session) closeEncoder() {
	if s.flac != nil {
		s.flac.Close()
	}
}

func (s *Session) emit(state State) {
	if s.feedback == nil {
		return
	}
	select {
	case s.feedback <- Feedback{RemoteIP: s.RemoteIP, State: state}:
	default:
	}
}
