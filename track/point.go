package track

// Point is one time-stamped pitch observation, the unit exchanged
// between the framing driver, the filter chain, and display/scoring
// consumers. TimeSec is monotonically non-decreasing within a sequence;
// consecutive points are usually hop-spaced but nothing here assumes
// exact spacing.
type Point struct {
	TimeSec    float64 `json:"time_sec"`
	MidiNote   float64 `json:"midi_note"`
	Confidence float64 `json:"confidence"`
}
