package track

import (
	"math"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
)

// FilterConfig parameterizes the three-stage post-processing chain that
// turns a raw per-frame pitch sequence into a series clean enough for
// display and scoring.
type FilterConfig struct {
	// MedianWindow is the width of the median smoothing window (stage
	// 1). Even values act as the next odd value up.
	MedianWindow int `json:"median_window"`

	// JumpSemitones drops a point whose pitch is at least this far
	// from both immediate neighbors (stage 2).
	JumpSemitones float64 `json:"jump_semitones"`

	// MinRunLength discards whole runs shorter than this (stage 3).
	MinRunLength int `json:"min_run_length"`

	// RunGapSec and RunPitchTolerance bound, respectively, the time gap
	// and the semitone distance from a run's last point under which the
	// run keeps growing.
	RunGapSec         float64 `json:"run_gap_sec"`
	RunPitchTolerance float64 `json:"run_pitch_tolerance"`
}

// DefaultFilterConfig returns the empirically tuned defaults. The run
// grouping thresholds and the octave cutoff have no documented
// derivation; treat them as starting points for calibration against
// real recordings.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MedianWindow:      5,
		JumpSemitones:     12.0,
		MinRunLength:      2,
		RunGapSec:         0.1,
		RunPitchTolerance: 1.5,
	}
}

// Process runs the filter chain: median smoothing, then octave-jump
// rejection, then run-length pruning. The stages are order-dependent:
// smoothing must come first so a spike is already partly suppressed
// when jump logic measures neighbor distance, and run grouping must see
// the already-cleaned sequence or genuine short notes fragment. Process
// is pure and never fails; it only ever drops or smooths points.
func (c FilterConfig) Process(points []Point) []Point {
	out := ApplyMedian(points, c.MedianWindow)
	out = ApplyJumpFilter(out, c.JumpSemitones)
	out = ApplyRunFilter(out, c.MinRunLength, c.RunGapSec, c.RunPitchTolerance)
	return out
}

// ApplyMedian replaces each point's pitch with the median over a
// window centered on it, clamped (shrinking asymmetrically) at the
// sequence edges. Times and confidences pass through unchanged. A
// single-frame spike needs ceil(window/2) frames of persistence to
// survive, so transient octave errors vanish while genuine note
// transitions keep their timing.
func ApplyMedian(points []Point, window int) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	if len(points) == 0 || window <= 1 {
		return out
	}

	midi := make([]float64, len(points))
	for i, p := range points {
		midi[i] = p.MidiNote
	}

	smoothed := common.MedianFilter(midi, window)
	for i := range out {
		out[i].MidiNote = smoothed[i]
	}
	return out
}

// ApplyJumpFilter drops interior points whose pitch is at least limit
// semitones away from both immediate neighbors in the input sequence.
// A point within the limit of at least one neighbor survives, as do the
// first and last points. This catches isolated octave errors that are
// locally smooth enough to slip through the median window.
func ApplyJumpFilter(points []Point, limit float64) []Point {
	if len(points) <= 2 || limit <= 0 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}

	out := make([]Point, 0, len(points))
	out = append(out, points[0])
	for i := 1; i < len(points)-1; i++ {
		fromPrev := math.Abs(points[i].MidiNote - points[i-1].MidiNote)
		fromNext := math.Abs(points[i].MidiNote - points[i+1].MidiNote)
		if fromPrev >= limit && fromNext >= limit {
			continue
		}
		out = append(out, points[i])
	}
	out = append(out, points[len(points)-1])
	return out
}

// ApplyRunFilter groups points into maximal runs -- consecutive points
// whose time gap stays under gapSec and whose pitch stays within
// pitchTol semitones of the run's last accepted point -- and discards
// runs shorter than minLen outright. Short bursts of consistent but
// spurious pitch (breath noise, consonant transients) are removed as a
// unit this way.
func ApplyRunFilter(points []Point, minLen int, gapSec, pitchTol float64) []Point {
	if len(points) == 0 {
		return []Point{}
	}
	if minLen <= 1 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}

	out := make([]Point, 0, len(points))
	runStart := 0

	flush := func(end int) {
		if end-runStart >= minLen {
			out = append(out, points[runStart:end]...)
		}
	}

	for i := 1; i < len(points); i++ {
		gap := points[i].TimeSec - points[i-1].TimeSec
		step := math.Abs(points[i].MidiNote - points[i-1].MidiNote)
		if gap >= gapSec || step > pitchTol {
			flush(i)
			runStart = i
		}
	}
	flush(len(points))

	return out
}
