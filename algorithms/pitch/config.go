package pitch

import "fmt"

// Method selects the frame-level detection algorithm.
type Method string

const (
	// MethodYIN is the canonical detector: difference function,
	// cumulative mean normalization, absolute threshold with parabolic
	// refinement. Used for offline analysis and anywhere accuracy wins
	// over latency.
	MethodYIN Method = "yin"

	// MethodAutocorrelation is the lighter windowed-autocorrelation
	// fallback for ultra-low-latency contexts. Faster, reduced
	// confidence, more prone to octave errors.
	MethodAutocorrelation Method = "autocorrelation"
)

// IsValid reports whether m is a recognised detection method.
func (m Method) IsValid() bool {
	return m == MethodYIN || m == MethodAutocorrelation
}

// Config contains the parameters for frame-level pitch detection. The
// zero value is not usable; start from DefaultConfig.
type Config struct {
	Method     Method `json:"method"`
	SampleRate int    `json:"sample_rate"`

	// Frequency search range. The defaults cover the singing range from
	// a low bass to a high soprano.
	MinFreq float64 `json:"min_freq"`
	MaxFreq float64 `json:"max_freq"`

	// Framing parameters, consumed by the framing driver rather than
	// the detector itself.
	WindowSize int `json:"window_size"`
	HopSize    int `json:"hop_size"`

	// YinThreshold is the absolute CMND threshold under which a lag
	// candidate is accepted (de Cheveigné & Kawahara 2002 suggest
	// 0.1-0.15).
	YinThreshold float64 `json:"yin_threshold"`

	// MinConfidence rejects estimates whose confidence (1 - CMND at the
	// chosen lag) falls below it.
	MinConfidence float64 `json:"min_confidence"`

	// SilenceRMS is the root-mean-square amplitude under which a frame
	// is treated as silent before any further work.
	SilenceRMS float64 `json:"silence_rms"`

	// WindowFunction names the taper used by the autocorrelation
	// detector ("hann" or "hamming"). The YIN detector works on the
	// untapered frame, where the cumulative normalization already
	// handles edge effects without biasing long lags.
	WindowFunction string `json:"window_function"`

	// FFTDifference switches the lag-domain function to the
	// O(n log n) FFT formulation. Results match the direct computation
	// within floating-point tolerance.
	FFTDifference bool `json:"fft_difference"`
}

// DefaultConfig returns the detection parameters used by both the live
// and offline paths.
func DefaultConfig(sampleRate int) Config {
	return Config{
		Method:         MethodYIN,
		SampleRate:     sampleRate,
		MinFreq:        80.0,
		MaxFreq:        1100.0,
		WindowSize:     2048,
		HopSize:        512,
		YinThreshold:   0.10,
		MinConfidence:  0.40,
		SilenceRMS:     0.003,
		WindowFunction: "hann",
	}
}

// Validate checks the parts of the configuration that indicate a caller
// bug rather than a property of the audio. An inverted or out-of-range
// frequency band is deliberately not an error here: per-frame detection
// treats it as a degenerate configuration and reports no estimate.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if !c.Method.IsValid() {
		return fmt.Errorf("unknown detection method: %q", c.Method)
	}
	return nil
}
