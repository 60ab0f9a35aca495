package track

import (
	"math"
	"sort"
)

// ScoreConfig parameterizes the comparison of a sung sequence against a
// reference sequence.
type ScoreConfig struct {
	// TimeWindowSec is the maximum distance to the nearest reference
	// point for a sung point to count as comparable at all.
	TimeWindowSec float64 `json:"time_window_sec"`

	// SemitoneTolerance is the pitch error within which a comparable
	// point counts as hit.
	SemitoneTolerance float64 `json:"semitone_tolerance"`
}

// DefaultScoreConfig returns the scoring defaults: a ±0.15 s matching
// window and half a semitone of pitch tolerance.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		TimeWindowSec:     0.15,
		SemitoneTolerance: 0.5,
	}
}

// PointScore is the per-point outcome of scoring.
type PointScore struct {
	Live Point `json:"live"`

	// Matched reports whether a reference point fell inside the time
	// window; ErrorSemitones is only meaningful when it did.
	Matched        bool    `json:"matched"`
	ErrorSemitones float64 `json:"error_semitones"`
	Hit            bool    `json:"hit"`
}

// ScoreResult aggregates a scoring pass.
type ScoreResult struct {
	Points []PointScore `json:"points"`

	// HitRatio is hits over sung points, zero when nothing was sung.
	HitRatio float64 `json:"hit_ratio"`
}

// Score compares each sung point against the nearest-in-time reference
// point. The reference sequence must be sorted by time, which analysis
// output always is. Unmatched sung points (nothing sung in the song
// there, or timing off by more than the window) count as misses.
func Score(live, reference []Point, cfg ScoreConfig) ScoreResult {
	result := ScoreResult{Points: make([]PointScore, 0, len(live))}
	if len(live) == 0 {
		return result
	}

	hits := 0
	for _, p := range live {
		ps := PointScore{Live: p}

		if ref, ok := nearestByTime(reference, p.TimeSec, cfg.TimeWindowSec); ok {
			ps.Matched = true
			ps.ErrorSemitones = p.MidiNote - ref.MidiNote
			ps.Hit = math.Abs(ps.ErrorSemitones) <= cfg.SemitoneTolerance
			if ps.Hit {
				hits++
			}
		}

		result.Points = append(result.Points, ps)
	}

	result.HitRatio = float64(hits) / float64(len(live))
	return result
}

// nearestByTime finds the reference point closest to t, rejecting it
// when farther than window seconds away.
func nearestByTime(reference []Point, t, window float64) (Point, bool) {
	if len(reference) == 0 {
		return Point{}, false
	}

	i := sort.Search(len(reference), func(i int) bool {
		return reference[i].TimeSec >= t
	})

	best := -1
	for _, candidate := range []int{i - 1, i} {
		if candidate < 0 || candidate >= len(reference) {
			continue
		}
		if best == -1 || math.Abs(reference[candidate].TimeSec-t) < math.Abs(reference[best].TimeSec-t) {
			best = candidate
		}
	}

	if best == -1 || math.Abs(reference[best].TimeSec-t) > window {
		return Point{}, false
	}
	return reference[best], true
}
