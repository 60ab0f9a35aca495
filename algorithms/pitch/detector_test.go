package pitch

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// generateSine creates a sine wave with the given amplitude and
// frequency at the given sample rate.
func generateSine(amplitude, freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestYINDetectsSineFrequencies(t *testing.T) {
	cfg := DefaultConfig(44100)

	// The whole search band, including the 80 Hz bottom edge where the
	// lag is longest and estimation error is worst.
	freqs := []float64{80, 98, 110, 146.83, 196, 246.94, 329.63, 440, 523.25, 698.46, 880, 1046.5}
	for _, freq := range freqs {
		det, err := NewYIN(cfg)
		if err != nil {
			t.Fatalf("NewYIN: %v", err)
		}

		frame := generateSine(0.5, freq, cfg.SampleRate, cfg.WindowSize)
		est, ok, err := det.Detect(frame)
		if err != nil {
			t.Fatalf("Detect(%g Hz): %v", freq, err)
		}
		if !ok {
			t.Fatalf("Detect(%g Hz): no estimate", freq)
		}

		want := FrequencyToMidi(freq)
		if !almostEqual(est.MidiNote, want, 0.05) {
			t.Errorf("Detect(%g Hz): midi %.4f, want %.4f (got %.2f Hz)",
				freq, est.MidiNote, want, est.FrequencyHz)
		}
		if est.Confidence < cfg.MinConfidence || est.Confidence > 1.0 {
			t.Errorf("Detect(%g Hz): confidence %.4f out of range", freq, est.Confidence)
		}
	}
}

func TestYINSilentFrame(t *testing.T) {
	det, err := NewYIN(DefaultConfig(44100))
	if err != nil {
		t.Fatalf("NewYIN: %v", err)
	}

	_, ok, err := det.Detect(make([]float64, 2048))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if ok {
		t.Error("Detect reported an estimate for an all-zero frame")
	}
}

func TestYINSilenceGate(t *testing.T) {
	cfg := DefaultConfig(44100)
	det, err := NewYIN(cfg)
	if err != nil {
		t.Fatalf("NewYIN: %v", err)
	}

	// RMS of a 0.001 amplitude sine is ~0.0007, under the 0.003 gate.
	frame := generateSine(0.001, 220, cfg.SampleRate, cfg.WindowSize)
	_, ok, err := det.Detect(frame)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if ok {
		t.Error("Detect reported an estimate for a near-silent frame")
	}
}

func TestYINShortFrame(t *testing.T) {
	det, err := NewYIN(DefaultConfig(44100))
	if err != nil {
		t.Fatalf("NewYIN: %v", err)
	}

	for _, frame := range [][]float64{nil, {}, {0.5}} {
		_, ok, err := det.Detect(frame)
		if err != nil {
			t.Fatalf("Detect(len %d): %v", len(frame), err)
		}
		if ok {
			t.Errorf("Detect(len %d) reported an estimate", len(frame))
		}
	}
}

func TestYINNonFiniteSamples(t *testing.T) {
	cfg := DefaultConfig(44100)
	det, err := NewYIN(cfg)
	if err != nil {
		t.Fatalf("NewYIN: %v", err)
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		frame := generateSine(0.5, 220, cfg.SampleRate, cfg.WindowSize)
		frame[100] = bad
		_, _, err := det.Detect(frame)
		if err == nil {
			t.Errorf("Detect with sample %v: expected error", bad)
		}
	}
}

func TestYINDegenerateFrequencyBand(t *testing.T) {
	cfg := DefaultConfig(44100)
	cfg.MinFreq = 1000
	cfg.MaxFreq = 100

	det, err := NewYIN(cfg)
	if err != nil {
		t.Fatalf("NewYIN: %v", err)
	}

	frame := generateSine(0.5, 220, cfg.SampleRate, cfg.WindowSize)
	_, ok, err := det.Detect(frame)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if ok {
		t.Error("Detect reported an estimate with an inverted frequency band")
	}
}

func TestYINDeterministic(t *testing.T) {
	cfg := DefaultConfig(44100)
	frame := generateSine(0.5, 440, cfg.SampleRate, cfg.WindowSize)

	var prev Estimate
	for i := 0; i < 3; i++ {
		det, err := NewYIN(cfg)
		if err != nil {
			t.Fatalf("NewYIN: %v", err)
		}
		est, ok, err := det.Detect(frame)
		if err != nil || !ok {
			t.Fatalf("Detect: ok=%v err=%v", ok, err)
		}
		if i > 0 && est != prev {
			t.Fatalf("run %d produced %+v, previous run %+v", i, est, prev)
		}
		prev = est
	}
}

func TestYINReusedDetectorDeterministic(t *testing.T) {
	cfg := DefaultConfig(44100)
	det, err := NewYIN(cfg)
	if err != nil {
		t.Fatalf("NewYIN: %v", err)
	}

	frame := generateSine(0.5, 330, cfg.SampleRate, cfg.WindowSize)
	first, ok, err := det.Detect(frame)
	if err != nil || !ok {
		t.Fatalf("Detect: ok=%v err=%v", ok, err)
	}

	// Interleave other frames to dirty the scratch buffers.
	if _, _, err := det.Detect(generateSine(0.5, 523.25, cfg.SampleRate, cfg.WindowSize)); err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if _, _, err := det.Detect(make([]float64, cfg.WindowSize)); err != nil {
		t.Fatalf("Detect: %v", err)
	}

	again, ok, err := det.Detect(frame)
	if err != nil || !ok {
		t.Fatalf("Detect: ok=%v err=%v", ok, err)
	}
	if first != again {
		t.Fatalf("reused detector produced %+v, first run %+v", again, first)
	}
}

func TestYINFFTDifferenceMatchesDirect(t *testing.T) {
	direct := DefaultConfig(44100)
	viaFFT := direct
	viaFFT.FFTDifference = true

	for _, freq := range []float64{110, 220, 440, 880} {
		d1, err := NewYIN(direct)
		if err != nil {
			t.Fatalf("NewYIN: %v", err)
		}
		d2, err := NewYIN(viaFFT)
		if err != nil {
			t.Fatalf("NewYIN: %v", err)
		}

		frame := generateSine(0.5, freq, direct.SampleRate, direct.WindowSize)
		e1, ok1, err1 := d1.Detect(frame)
		e2, ok2, err2 := d2.Detect(frame)
		if err1 != nil || err2 != nil {
			t.Fatalf("Detect(%g Hz): %v / %v", freq, err1, err2)
		}
		if ok1 != ok2 {
			t.Fatalf("Detect(%g Hz): voiced disagreement direct=%v fft=%v", freq, ok1, ok2)
		}
		if !almostEqual(e1.FrequencyHz, e2.FrequencyHz, 1e-3) {
			t.Errorf("Detect(%g Hz): direct %.6f Hz, fft %.6f Hz", freq, e1.FrequencyHz, e2.FrequencyHz)
		}
	}
}

func TestYINVariableFrameLength(t *testing.T) {
	cfg := DefaultConfig(44100)
	det, err := NewYIN(cfg)
	if err != nil {
		t.Fatalf("NewYIN: %v", err)
	}

	// A frame length differing from the configured window size must
	// still be handled; the taper is rebuilt to fit.
	frame := generateSine(0.5, 220, cfg.SampleRate, 4096)
	est, ok, err := det.Detect(frame)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !ok {
		t.Fatal("Detect: no estimate for 4096-sample frame")
	}
	if !almostEqual(est.MidiNote, FrequencyToMidi(220), 0.05) {
		t.Errorf("midi %.4f, want %.4f", est.MidiNote, FrequencyToMidi(220))
	}
}

func TestAutocorrelationDetectsSine(t *testing.T) {
	cfg := DefaultConfig(44100)
	cfg.Method = MethodAutocorrelation

	for _, freq := range []float64{146.83, 220, 440} {
		det, err := NewAutocorrelation(cfg)
		if err != nil {
			t.Fatalf("NewAutocorrelation: %v", err)
		}

		frame := generateSine(0.5, freq, cfg.SampleRate, cfg.WindowSize)
		est, ok, err := det.Detect(frame)
		if err != nil {
			t.Fatalf("Detect(%g Hz): %v", freq, err)
		}
		if !ok {
			t.Fatalf("Detect(%g Hz): no estimate", freq)
		}

		// The taper biases the correlation peak slightly, so the
		// fallback detector gets a looser tolerance than YIN.
		want := FrequencyToMidi(freq)
		if !almostEqual(est.MidiNote, want, 0.3) {
			t.Errorf("Detect(%g Hz): midi %.4f, want %.4f", freq, est.MidiNote, want)
		}
	}
}

func TestAutocorrelationIgnoresDCOffset(t *testing.T) {
	cfg := DefaultConfig(44100)
	cfg.Method = MethodAutocorrelation
	det, err := NewAutocorrelation(cfg)
	if err != nil {
		t.Fatalf("NewAutocorrelation: %v", err)
	}

	frame := generateSine(0.5, 220, cfg.SampleRate, cfg.WindowSize)
	for i := range frame {
		frame[i] += 0.3
	}

	est, ok, err := det.Detect(frame)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !ok {
		t.Fatal("Detect: no estimate for offset sine")
	}
	if !almostEqual(est.MidiNote, FrequencyToMidi(220), 0.3) {
		t.Errorf("midi %.4f, want %.4f", est.MidiNote, FrequencyToMidi(220))
	}
}

func TestNewDispatch(t *testing.T) {
	cfg := DefaultConfig(44100)

	if det, err := New(cfg); err != nil {
		t.Fatalf("New(yin): %v", err)
	} else if _, ok := det.(*YIN); !ok {
		t.Fatalf("New(yin) returned %T", det)
	}

	cfg.Method = MethodAutocorrelation
	if det, err := New(cfg); err != nil {
		t.Fatalf("New(autocorrelation): %v", err)
	} else if _, ok := det.(*Autocorrelation); !ok {
		t.Fatalf("New(autocorrelation) returned %T", det)
	}

	cfg.Method = "cepstrum"
	if _, err := New(cfg); err == nil {
		t.Error("New accepted an unknown method")
	}

	cfg = DefaultConfig(0)
	if _, err := New(cfg); err == nil {
		t.Error("New accepted a zero sample rate")
	}
}

func TestLagRange(t *testing.T) {
	tauMin, tauMax, ok := lagRange(44100, 80, 1100, 1024)
	if !ok {
		t.Fatal("lagRange rejected the default band")
	}
	if tauMin != 40 || tauMax != 551 {
		t.Errorf("lagRange = [%d, %d], want [40, 551]", tauMin, tauMax)
	}

	// Band the frame cannot resolve: lag clamp inverts the range.
	if _, _, ok := lagRange(44100, 80, 1100, 41); ok {
		t.Error("lagRange accepted a band the frame cannot resolve")
	}
	if _, _, ok := lagRange(44100, 1100, 80, 1024); ok {
		t.Error("lagRange accepted an inverted band")
	}
	if _, _, ok := lagRange(44100, -5, 100, 1024); ok {
		t.Error("lagRange accepted a negative minimum")
	}
}

func TestParabolicOffset(t *testing.T) {
	// Vertex of a symmetric parabola sits at the center sample.
	if got := parabolicOffset(1, 0, 1); got != 0 {
		t.Errorf("symmetric parabola: offset %g, want 0", got)
	}

	// y = (x - 0.25)^2 sampled at -1, 0, 1.
	got := parabolicOffset(1.5625, 0.0625, 0.5625)
	if !almostEqual(got, 0.25, 1e-12) {
		t.Errorf("offset %g, want 0.25", got)
	}

	// Degenerate: collinear points have no vertex.
	if got := parabolicOffset(1, 2, 3); got != 0 {
		t.Errorf("collinear points: offset %g, want 0", got)
	}

	// A vertex outside (-1, 1) is an extrapolation and is rejected.
	if got := parabolicOffset(0.0, 1.0, 2.05); got != 0 {
		t.Errorf("out-of-range vertex: offset %g, want 0", got)
	}
}
