package pitch

import (
	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/algorithms/windowing"
)

// Autocorrelation is the windowed, parabolically interpolated
// autocorrelation detector. It shares the frame contract with YIN but
// skips the normalization stage, which makes it cheaper and noticeably
// more willing to lock onto subharmonics; callers that can afford the
// extra cost should prefer MethodYIN.
type Autocorrelation struct {
	cfg    Config
	window windowing.Window

	buf  []float64
	corr []float64
}

// NewAutocorrelation creates the fallback autocorrelation detector.
func NewAutocorrelation(cfg Config) (*Autocorrelation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	size := cfg.WindowSize
	if size < 2 {
		size = 2
	}
	w, err := windowing.New(cfg.WindowFunction, size)
	if err != nil {
		return nil, err
	}

	return &Autocorrelation{cfg: cfg, window: w}, nil
}

// Detect estimates the fundamental frequency of one frame of mono
// samples. See the Detector contract for the meaning of the returns.
func (a *Autocorrelation) Detect(frame []float64) (Estimate, bool, error) {
	if len(frame) < 2 {
		return Estimate{}, false, nil
	}
	if err := checkFinite(frame); err != nil {
		return Estimate{}, false, err
	}
	if common.RMS(frame) < a.cfg.SilenceRMS {
		return Estimate{}, false, nil
	}

	n := len(frame)
	tauMin, tauMax, ok := lagRange(a.cfg.SampleRate, a.cfg.MinFreq, a.cfg.MaxFreq, n)
	if !ok {
		return Estimate{}, false, nil
	}

	a.ensureBuffers(n)
	copy(a.buf, frame)

	// Mean removal keeps a DC offset from swamping the zero-lag energy.
	mean := common.Mean(a.buf)
	for i := range a.buf {
		a.buf[i] -= mean
	}
	if err := a.window.ApplyInPlace(a.buf); err != nil {
		return Estimate{}, false, err
	}

	lagLimit := tauMax + 1
	if lagLimit > n-1 {
		lagLimit = n - 1
	}
	if a.cfg.FFTDifference {
		a.autocorrelateFFT(lagLimit)
	} else {
		a.autocorrelate(lagLimit)
	}

	corr0 := a.corr[0]
	if corr0 <= 0 {
		return Estimate{}, false, nil
	}

	peak := tauMin
	for tau := tauMin + 1; tau <= tauMax; tau++ {
		if a.corr[tau] > a.corr[peak] {
			peak = tau
		}
	}

	confidence := common.Clamp(a.corr[peak]/corr0, 0.0, 1.0)
	if confidence < a.cfg.MinConfidence {
		return Estimate{}, false, nil
	}

	delta := 0.0
	if peak > 0 && peak < lagLimit {
		// Same vertex fit as YIN; the parabola opens downward here but
		// the offset formula is identical.
		delta = parabolicOffset(a.corr[peak-1], a.corr[peak], a.corr[peak+1])
	}

	freq := float64(a.cfg.SampleRate) / (float64(peak) + delta)
	if freq < a.cfg.MinFreq || freq > a.cfg.MaxFreq {
		return Estimate{}, false, nil
	}

	return Estimate{
		FrequencyHz: freq,
		MidiNote:    FrequencyToMidi(freq),
		Confidence:  confidence,
	}, true, nil
}

func (a *Autocorrelation) ensureBuffers(n int) {
	if len(a.buf) != n {
		a.buf = make([]float64, n)
		a.corr = make([]float64, n)
	}
	if a.window.GetSize() != n {
		a.window, _ = windowing.New(a.cfg.WindowFunction, n)
	}
}

// autocorrelate computes r(tau) = sum_j x[j]*x[j+tau] for tau up to
// lagLimit inclusive.
func (a *Autocorrelation) autocorrelate(lagLimit int) {
	n := len(a.buf)

	for tau := 0; tau <= lagLimit; tau++ {
		sum := 0.0
		for j := 0; j < n-tau; j++ {
			sum += a.buf[j] * a.buf[j+tau]
		}
		a.corr[tau] = sum
	}
}

// autocorrelateFFT computes the same lags through the power spectrum of
// the zero-padded frame.
func (a *Autocorrelation) autocorrelateFFT(lagLimit int) {
	n := len(a.buf)

	padded := make([]float64, 2*n)
	copy(padded, a.buf)

	spectrum := fft.FFTReal(padded)
	for i := range spectrum {
		re := real(spectrum[i])
		im := imag(spectrum[i])
		spectrum[i] = complex(re*re+im*im, 0)
	}
	acf := fft.IFFT(spectrum)

	for tau := 0; tau <= lagLimit; tau++ {
		a.corr[tau] = real(acf[tau])
	}
}
