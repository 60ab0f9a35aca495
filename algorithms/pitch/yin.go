package pitch

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
)

// fallbackCeiling bounds the CMND value accepted from the global-minimum
// fallback. A global minimum with no dip under the threshold is usually
// noise rather than a genuine weak pitch.
const fallbackCeiling = 0.4

// YIN implements the YIN fundamental frequency estimator.
//
// Reference: de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental
// frequency estimator for speech and music".
//
// The estimator runs, per frame: an RMS silence gate, the lag-domain
// difference function, cumulative mean normalization (which suppresses
// the subharmonic false positives that plague plain autocorrelation),
// absolute-threshold candidate selection with a global-minimum fallback,
// and parabolic sub-sample refinement.
//
// The difference function operates on the untapered frame. A taper makes
// the two halves of the lag comparison decay unequally, which drags the
// CMND minimum toward shorter lags and biases low-frequency estimates
// sharp by a visible fraction of a semitone; the cumulative
// normalization already provides the edge robustness a taper would buy.
type YIN struct {
	cfg Config

	// scratch buffers, reused across frames
	buf  []float64
	diff []float64
	cmnd []float64
}

// NewYIN creates a YIN detector.
func NewYIN(cfg Config) (*YIN, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &YIN{cfg: cfg}, nil
}

// Detect estimates the fundamental frequency of one frame of mono
// samples. See the Detector contract for the meaning of the returns.
func (y *YIN) Detect(frame []float64) (Estimate, bool, error) {
	if len(frame) < 2 {
		return Estimate{}, false, nil
	}
	if err := checkFinite(frame); err != nil {
		return Estimate{}, false, err
	}

	// Silence gate: near-silent frames are rejected before any further
	// cost is spent.
	if common.RMS(frame) < y.cfg.SilenceRMS {
		return Estimate{}, false, nil
	}

	half := len(frame) / 2
	tauMin, tauMax, ok := lagRange(y.cfg.SampleRate, y.cfg.MinFreq, y.cfg.MaxFreq, half)
	if !ok {
		return Estimate{}, false, nil
	}

	y.ensureBuffers(len(frame))
	copy(y.buf, frame)

	if y.cfg.FFTDifference {
		y.differenceFFT()
	} else {
		y.difference()
	}
	y.normalize()

	tau := y.selectCandidate(tauMin, tauMax)
	if tau < 0 {
		return Estimate{}, false, nil
	}

	// Confidence uses the CMND value at the integer lag, before any
	// sub-sample refinement.
	confidence := 1.0 - y.cmnd[tau]
	if confidence < y.cfg.MinConfidence {
		return Estimate{}, false, nil
	}

	delta := 0.0
	if tau > 0 && tau < half-1 {
		delta = parabolicOffset(y.cmnd[tau-1], y.cmnd[tau], y.cmnd[tau+1])
	}

	// The refinement can push the frequency slightly out of band.
	freq := float64(y.cfg.SampleRate) / (float64(tau) + delta)
	if freq < y.cfg.MinFreq || freq > y.cfg.MaxFreq {
		return Estimate{}, false, nil
	}

	return Estimate{
		FrequencyHz: freq,
		MidiNote:    FrequencyToMidi(freq),
		Confidence:  confidence,
	}, true, nil
}

func (y *YIN) ensureBuffers(n int) {
	if len(y.buf) != n {
		y.buf = make([]float64, n)
		y.diff = make([]float64, n/2)
		y.cmnd = make([]float64, n/2)
	}
}

// difference computes d(tau) = sum_{j<half} (x[j] - x[j+tau])^2 for
// tau in [0, half). This O(half^2) loop dominates the cost of the
// algorithm; differenceFFT is the O(n log n) alternative.
func (y *YIN) difference() {
	half := len(y.buf) / 2

	for tau := 0; tau < half; tau++ {
		sum := 0.0
		for j := 0; j < half; j++ {
			delta := y.buf[j] - y.buf[j+tau]
			sum += delta * delta
		}
		y.diff[tau] = sum
	}
}

// differenceFFT computes the same difference function through the
// identity d(tau) = p(0) + p(tau) - 2*r(tau), where p(tau) is the
// energy of x[tau:tau+half] and r(tau) the cross-correlation of the
// frame with its first half, evaluated by FFT.
func (y *YIN) differenceFFT() {
	n := len(y.buf)
	half := n / 2

	spectrum := fft.FFTReal(y.buf)

	head := make([]float64, n)
	copy(head, y.buf[:half])
	headSpectrum := fft.FFTReal(head)

	cross := make([]complex128, len(spectrum))
	for i := range spectrum {
		cross[i] = spectrum[i] * cmplx.Conj(headSpectrum[i])
	}
	corr := fft.IFFT(cross)

	// prefix[i] holds the energy of x[:i].
	prefix := make([]float64, n+1)
	for i, v := range y.buf {
		prefix[i+1] = prefix[i] + v*v
	}

	p0 := prefix[half]
	for tau := 0; tau < half; tau++ {
		d := p0 + (prefix[tau+half] - prefix[tau]) - 2.0*real(corr[tau])
		if d < 0 {
			// rounding noise; the exact value is non-negative
			d = 0
		}
		y.diff[tau] = d
	}
}

// normalize computes the cumulative mean normalized difference. The
// normalization penalizes longer lags by the running mean of the
// difference function, which is what suppresses octave-submultiple
// candidates.
func (y *YIN) normalize() {
	half := len(y.diff)

	y.cmnd[0] = 1.0
	runningSum := 0.0
	for tau := 1; tau < half; tau++ {
		runningSum += y.diff[tau]
		if runningSum == 0 {
			// all-zero difference up to this lag; a flat signal
			// that slipped past the silence gate
			y.cmnd[tau] = 0.0
		} else {
			y.cmnd[tau] = y.diff[tau] * float64(tau) / runningSum
		}
	}
}

// selectCandidate scans the lag range for the first dip under the
// absolute threshold, descending to the dip's local minimum. Without
// such a dip it falls back to the global minimum in range, rejected
// when it exceeds fallbackCeiling. Returns -1 when the frame is
// unvoiced.
func (y *YIN) selectCandidate(tauMin, tauMax int) int {
	for tau := tauMin; tau <= tauMax; tau++ {
		if y.cmnd[tau] < y.cfg.YinThreshold {
			for tau+1 <= tauMax && y.cmnd[tau+1] < y.cmnd[tau] {
				tau++
			}
			return tau
		}
	}

	best := tauMin
	for tau := tauMin + 1; tau <= tauMax; tau++ {
		if y.cmnd[tau] < y.cmnd[best] {
			best = tau
		}
	}
	if y.cmnd[best] > fallbackCeiling {
		return -1
	}
	return best
}
