package windowing

import "fmt"

// Window is the common contract for window functions used ahead of
// lag-domain analysis.
type Window interface {
	Apply(signal []float64) []float64
	ApplyInPlace(signal []float64) error
	GetCoefficients() []float64
	GetSize() int
	GetType() string
}

// New creates a symmetric window of the named type. Supported names are
// "hann" and "hamming"; the empty string defaults to Hann.
func New(name string, size int) (Window, error) {
	switch name {
	case "", "hann":
		return NewHann(size, true), nil
	case "hamming":
		return NewHamming(size, true), nil
	default:
		return nil, fmt.Errorf("unknown window function: %q", name)
	}
}
