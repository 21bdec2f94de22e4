package audio

import "math"

// RMSLevel is one 100ms window's per-channel root-mean-square level,
// emitted by RMSMonitor for a UI/CLI collaborator to display.
type RMSLevel struct {
	Left, Right float64
}

// RMSMonitor is a supplemental Sample Bus consumer (SPEC_FULL.md §3) that
// reports per-channel RMS over ~100ms windows, the same accumulation window
// original_source/src/utils/extra_threads.rs's run_rms_monitor uses
// (samples_per_update = sample_rate*channels/10).
type RMSMonitor struct {
	levels chan RMSLevel
}

// Levels returns the channel RMSLevel values are published on. The channel
// is closed once the consumer's queue is closed and the monitor goroutine
// exits.
func (m *RMSMonitor) Levels() <-chan RMSLevel { return m.levels }

// RunRMSMonitor consumes stereo-interleaved frames from c until its queue is
// closed, computing and publishing one RMSLevel per window of
// sampleRateHz/10 stereo frames. It starts its own goroutine and returns
// immediately.
func RunRMSMonitor(c *Consumer, sampleRateHz int) *RMSMonitor {
	m := &RMSMonitor{levels: make(chan RMSLevel, 4)}
	go m.run(c, sampleRateHz)
	return m
}

func (m *RMSMonitor) run(c *Consumer, sampleRateHz int) {
	defer close(m.levels)

	windowFrames := sampleRateHz / 10
	if windowFrames <= 0 {
		windowFrames = 4800
	}

	var sumL, sumR float64
	var n int

	for frame := range c.Frames() {
		for i := 0; i+1 < len(frame); i += 2 {
			l, r := float64(frame[i]), float64(frame[i+1])
			sumL += l * l
			sumR += r * r
			n++
			if n >= windowFrames {
				level := RMSLevel{
					Left:  math.Sqrt(sumL / float64(n)),
					Right: math.Sqrt(sumR / float64(n)),
				}
				select {
				case m.levels <- level:
				default:
				}
				sumL, sumR, n = 0, 0, 0
			}
		}
	}
}
