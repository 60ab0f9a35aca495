package track

import (
	"math"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
)

// Segment is a merged visual bucket of consecutive pitch points,
// rendered as one bar/note instead of a cloud of hop-spaced dots.
type Segment struct {
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`

	// MidiNote is the mean pitch of the bucketed points.
	MidiNote float64 `json:"midi_note"`
	Count    int     `json:"count"`
}

// Segments buckets a filtered pitch sequence for rendering: consecutive
// points merge into one segment while their time gap stays under
// maxGapSec and their pitch stays within pitchTol semitones of the
// segment's running mean.
func Segments(points []Point, maxGapSec, pitchTol float64) []Segment {
	if len(points) == 0 {
		return []Segment{}
	}

	var segments []Segment
	start := 0
	midis := []float64{points[0].MidiNote}

	flush := func(end int) {
		segments = append(segments, Segment{
			StartSec: points[start].TimeSec,
			EndSec:   points[end-1].TimeSec,
			MidiNote: common.Mean(midis),
			Count:    end - start,
		})
	}

	for i := 1; i < len(points); i++ {
		gap := points[i].TimeSec - points[i-1].TimeSec
		drift := math.Abs(points[i].MidiNote - common.Mean(midis))
		if gap >= maxGapSec || drift > pitchTol {
			flush(i)
			start = i
			midis = midis[:0]
		}
		midis = append(midis, points[i].MidiNote)
	}
	flush(len(points))

	return segments
}
