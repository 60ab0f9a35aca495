package pitch

import (
	"fmt"
	"math"
)

// Detector is the frame-level contract shared by every detection
// strategy: one frame of mono samples in, at most one estimate out.
//
// The boolean distinguishes the expected "no pitch in this frame"
// outcome (silence, noise, consonants, degenerate search range) from a
// successful estimate. The error is reserved for contract violations --
// non-finite samples -- that indicate a bug upstream of the detector.
//
// Implementations reuse internal buffers and are not safe for
// concurrent use; create one detector per goroutine.
type Detector interface {
	Detect(frame []float64) (Estimate, bool, error)
}

// New creates a detector for the configured method.
func New(cfg Config) (Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Method {
	case MethodYIN:
		return NewYIN(cfg)
	case MethodAutocorrelation:
		return NewAutocorrelation(cfg)
	default:
		return nil, fmt.Errorf("unknown detection method: %q", cfg.Method)
	}
}

// checkFinite rejects frames containing NaN or infinite samples. Such
// frames can only come from a broken decoder or test harness, never
// from audio, so they surface as errors instead of "unvoiced".
func checkFinite(frame []float64) error {
	for i, v := range frame {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite sample %v at index %d", v, i)
		}
	}
	return nil
}

// lagRange converts the frequency search band to a lag range
// [tauMin, tauMax] in samples, bounded by limit (exclusive). The second
// return is false when the configuration is degenerate: inverted band,
// non-positive frequencies, or a band the frame cannot resolve.
func lagRange(sampleRate int, minFreq, maxFreq float64, limit int) (int, int, bool) {
	if minFreq <= 0 || maxFreq <= minFreq {
		return 0, 0, false
	}

	tauMin := int(float64(sampleRate) / maxFreq)
	tauMax := int(float64(sampleRate) / minFreq)

	if tauMin < 1 {
		tauMin = 1
	}
	if tauMax > limit-1 {
		tauMax = limit - 1
	}
	if tauMin >= tauMax {
		return 0, 0, false
	}

	return tauMin, tauMax, true
}

// parabolicOffset fits a parabola through three equally spaced values
// and returns the fractional offset of its vertex from the center
// point. The refinement is rejected (offset 0) when the denominator is
// numerically degenerate or the vertex lands outside (-1, 1), which
// signals an extrapolation at the resolution limit rather than a
// genuine sub-sample peak.
func parabolicOffset(left, center, right float64) float64 {
	denom := left - 2.0*center + right
	if math.Abs(denom) < 1e-10 {
		return 0.0
	}

	delta := 0.5 * (left - right) / denom
	if math.Abs(delta) >= 1.0 {
		return 0.0
	}

	return delta
}
