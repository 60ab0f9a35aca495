package track

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-pitch/algorithms/pitch"
	"github.com/RyanBlaney/sonido-pitch/logging"
)

// Analyzer runs the frame detector across an entire sample buffer and
// feeds the surviving estimates through the filter chain. Offline
// analysis of a song is one Analyze call; the same configuration drives
// the live path so both produce comparable sequences.
type Analyzer struct {
	cfg     pitch.Config
	filter  FilterConfig
	workers int
	logger  logging.Logger
}

// NewAnalyzer creates an analyzer with one worker per CPU.
func NewAnalyzer(cfg pitch.Config, filter FilterConfig) *Analyzer {
	return &Analyzer{
		cfg:     cfg,
		filter:  filter,
		workers: runtime.GOMAXPROCS(0),
		logger: logging.WithFields(logging.Fields{
			"component": "analyzer",
		}),
	}
}

// SetWorkers bounds the number of concurrent detection goroutines.
// Values below one mean sequential analysis.
func (a *Analyzer) SetWorkers(n int) {
	a.workers = n
}

// Analyze slides the detector over the buffer and returns the filtered
// pitch sequence. Frames are independent, so they fan out across
// workers; results are gathered in frame order, which keeps the output
// identical to a sequential pass. A buffer shorter than one window, or
// one yielding no voiced frames, returns an empty (non-nil) sequence --
// a fully instrumental or silent input is a valid result, not an error.
func (a *Analyzer) Analyze(ctx context.Context, samples []float64) ([]Point, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	framer, err := NewFramer(samples, a.cfg.SampleRate, a.cfg.WindowSize, a.cfg.HopSize)
	if err != nil {
		return nil, err
	}

	numFrames := framer.NumFrames()
	if numFrames == 0 {
		return []Point{}, nil
	}

	results := make([]Point, numFrames)
	voiced := make([]bool, numFrames)

	workers := a.workers
	if workers < 1 {
		workers = 1
	}
	if workers > numFrames {
		workers = numFrames
	}

	// Contiguous shards, one detector per worker: detectors reuse
	// internal buffers and must not be shared across goroutines.
	g, ctx := errgroup.WithContext(ctx)
	chunk := (numFrames + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, numFrames)
		if start >= end {
			break
		}

		g.Go(func() error {
			det, err := pitch.New(a.cfg)
			if err != nil {
				return err
			}
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				frame, timeSec := framer.Frame(i)
				est, ok, err := det.Detect(frame)
				if err != nil {
					return err
				}
				if ok {
					results[i] = Point{
						TimeSec:    timeSec,
						MidiNote:   est.MidiNote,
						Confidence: est.Confidence,
					}
					voiced[i] = true
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	points := make([]Point, 0, numFrames)
	for i := range results {
		if voiced[i] {
			points = append(points, results[i])
		}
	}

	filtered := a.filter.Process(points)
	a.logger.Debug("analysis complete", logging.Fields{
		"frames":   numFrames,
		"voiced":   len(points),
		"filtered": len(filtered),
	})

	return filtered, nil
}
