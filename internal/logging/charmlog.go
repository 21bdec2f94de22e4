package logging

import (
	"io"

	"github.com/charmbracelet/log"
)

// Charm wraps github.com/charmbracelet/log, the leveled/colorized logger the
// teacher's go.mod already declares but never wires up. This is that wiring:
// the concern textcolor.go's globals were solving (tag a line with a
// severity, print it somewhere) done the idiomatic charmbracelet/log way.
type Charm struct {
	logger *log.Logger
}

// NewCharm builds a production Sink writing to w (typically os.Stderr).
func NewCharm(w io.Writer) *Charm {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    false,
	})
	return &Charm{logger: l}
}

func (c *Charm) Emit(level Level, msg string) {
	switch level {
	case LevelError:
		c.logger.Error(msg)
	case LevelDebug:
		c.logger.Debug(msg)
	default:
		c.logger.Info(msg)
	}
}
