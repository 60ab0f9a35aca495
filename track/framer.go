package track

import "fmt"

// Framer slides a fixed-length window across a sample buffer in hop
// sized steps, yielding each frame together with the start time of its
// window. It stops once fewer than a full window of samples remains,
// holds no state beyond the read offset, and can be restarted with
// Reset.
type Framer struct {
	samples    []float64
	sampleRate int
	window     int
	hop        int
	offset     int
}

// NewFramer creates a framer over the buffer. The window and hop sizes
// are in samples, with hop <= window.
func NewFramer(samples []float64, sampleRate, window, hop int) (*Framer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", window)
	}
	if hop <= 0 {
		return nil, fmt.Errorf("hop size must be positive, got %d", hop)
	}
	if hop > window {
		return nil, fmt.Errorf("hop size (%d) must not exceed window size (%d)", hop, window)
	}

	return &Framer{
		samples:    samples,
		sampleRate: sampleRate,
		window:     window,
		hop:        hop,
	}, nil
}

// Next returns the next frame and the time in seconds of its first
// sample, or ok == false once the buffer is exhausted. The returned
// slice aliases the underlying buffer and must be treated as read-only.
func (f *Framer) Next() (frame []float64, timeSec float64, ok bool) {
	if f.offset+f.window > len(f.samples) {
		return nil, 0, false
	}

	frame = f.samples[f.offset : f.offset+f.window]
	timeSec = float64(f.offset) / float64(f.sampleRate)
	f.offset += f.hop
	return frame, timeSec, true
}

// Reset rewinds the framer to the start of the buffer.
func (f *Framer) Reset() {
	f.offset = 0
}

// NumFrames returns the number of frames the framer will yield:
// floor((N-W)/H)+1, or zero when the buffer is shorter than one window.
func (f *Framer) NumFrames() int {
	if len(f.samples) < f.window {
		return 0
	}
	return (len(f.samples)-f.window)/f.hop + 1
}

// Frame returns the i-th frame and its start time without touching the
// iteration offset. Used by the parallel analyzer to shard work.
func (f *Framer) Frame(i int) (frame []float64, timeSec float64) {
	start := i * f.hop
	return f.samples[start : start+f.window], float64(start) / float64(f.sampleRate)
}
