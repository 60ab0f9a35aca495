package pitch

import (
	"fmt"
	"math"
)

// Estimate is the result of analyzing a single frame: a fundamental
// frequency, its fractional MIDI equivalent, and a confidence score in
// [0, 1]. Estimates are value types and never mutated after creation.
type Estimate struct {
	FrequencyHz float64 `json:"frequency_hz"`
	MidiNote    float64 `json:"midi_note"`
	Confidence  float64 `json:"confidence"`
}

// FrequencyToMidi converts a frequency in Hz to a fractional MIDI note
// number (69.0 = A4 = 440 Hz).
func FrequencyToMidi(freq float64) float64 {
	return 69.0 + 12.0*math.Log2(freq/440.0)
}

// MidiToFrequency converts a fractional MIDI note number to Hz.
func MidiToFrequency(midi float64) float64 {
	return 440.0 * math.Pow(2.0, (midi-69.0)/12.0)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the conventional name of the nearest equal-tempered
// note, e.g. NoteName(69) == "A4", NoteName(60.4) == "C4".
func NoteName(midi float64) string {
	n := int(math.Round(midi))
	octave := n/12 - 1
	return fmt.Sprintf("%s%d", noteNames[((n%12)+12)%12], octave)
}
