package track

import (
	"context"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-pitch/algorithms/pitch"
	"github.com/RyanBlaney/sonido-pitch/logging"
)

// SampleSource exposes the most recent window of captured samples. The
// microphone/AudioContext loop that fills it is external to the core; a
// source may return fewer samples than requested (or none) while the
// capture buffer warms up.
type SampleSource interface {
	Latest(n int) []float64
}

// LiveConfig parameterizes the live tracking loop.
type LiveConfig struct {
	// Detector configures the frame detector shared with offline
	// analysis.
	Detector pitch.Config `json:"detector"`

	// Interval is the detection cadence. The loop samples the capture
	// stream at this rate rather than chasing every buffer; stale
	// estimates between ticks are expected and fine.
	Interval time.Duration `json:"interval"`

	// LatencyOffsetSec is subtracted from published timestamps to
	// compensate for capture input latency.
	LatencyOffsetSec float64 `json:"latency_offset_sec"`
}

// DefaultLiveConfig returns a live configuration on the given sample
// rate with a 50 ms cadence.
func DefaultLiveConfig(sampleRate int) LiveConfig {
	return LiveConfig{
		Detector: pitch.DefaultConfig(sampleRate),
		Interval: 50 * time.Millisecond,
	}
}

// LiveTracker repeatedly detects pitch on the newest capture window and
// publishes the latest estimate for the UI to poll. Every cycle simply
// overwrites the current result, so there is no backpressure to manage.
type LiveTracker struct {
	cfg    LiveConfig
	source SampleSource
	clock  Clock
	logger logging.Logger

	mu        sync.RWMutex
	latest    Point
	hasLatest bool
}

// NewLiveTracker creates a live tracker. A nil clock means the system
// clock.
func NewLiveTracker(cfg LiveConfig, source SampleSource, clock Clock) *LiveTracker {
	if clock == nil {
		clock = SystemClock()
	}
	return &LiveTracker{
		cfg:    cfg,
		source: source,
		clock:  clock,
		logger: logging.WithFields(logging.Fields{
			"component": "live_tracker",
		}),
	}
}

// Run drives the detection loop until ctx is cancelled. Cancellation is
// immediate: the published estimate is cleared and the method returns
// without blocking on anything. The only error besides ctx.Err() is a
// detector contract violation, which indicates a broken capture source.
func (t *LiveTracker) Run(ctx context.Context) error {
	det, err := pitch.New(t.cfg.Detector)
	if err != nil {
		return err
	}

	ticker := t.clock.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	start := t.clock.Now()
	t.logger.Debug("live tracking started")

	for {
		select {
		case <-ctx.Done():
			t.clear()
			return ctx.Err()

		case now := <-ticker.C():
			frame := t.source.Latest(t.cfg.Detector.WindowSize)
			if len(frame) == 0 {
				continue
			}

			est, ok, err := det.Detect(frame)
			if err != nil {
				t.clear()
				return err
			}
			if !ok {
				continue
			}

			timeSec := now.Sub(start).Seconds() - t.cfg.LatencyOffsetSec
			if timeSec < 0 {
				timeSec = 0
			}
			t.publish(Point{
				TimeSec:    timeSec,
				MidiNote:   est.MidiNote,
				Confidence: est.Confidence,
			})
		}
	}
}

// Latest returns the most recently published point, if any.
func (t *LiveTracker) Latest() (Point, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest, t.hasLatest
}

func (t *LiveTracker) publish(p Point) {
	t.mu.Lock()
	t.latest = p
	t.hasLatest = true
	t.mu.Unlock()
}

func (t *LiveTracker) clear() {
	t.mu.Lock()
	t.latest = Point{}
	t.hasLatest = false
	t.mu.Unlock()
}
