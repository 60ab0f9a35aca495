package track

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-pitch/algorithms/pitch"
	"github.com/RyanBlaney/sonido-pitch/transcode"
)

func TestAnalyzeFile(t *testing.T) {
	if !transcode.NewDecoder(nil).IsAvailable() {
		t.Skip("ffmpeg not available")
	}

	cfg := pitch.DefaultConfig(44100)
	path := filepath.Join(t.TempDir(), "tone.wav")
	samples := generateSine(0.5, 440, cfg.SampleRate, cfg.SampleRate)
	if err := transcode.WriteWAVFile(path, samples, cfg.SampleRate); err != nil {
		t.Fatalf("WriteWAVFile: %v", err)
	}

	a := NewAnalyzer(cfg, DefaultFilterConfig())
	points, err := a.AnalyzeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("AnalyzeFile: %v", err)
	}
	if len(points) == 0 {
		t.Fatal("AnalyzeFile returned no points")
	}
	for i, p := range points {
		if !almostEqual(p.MidiNote, 69, 0.2) {
			t.Errorf("points[%d].MidiNote = %g, want ~69", i, p.MidiNote)
		}
	}
}

func TestAnalyzeFileMissing(t *testing.T) {
	if !transcode.NewDecoder(nil).IsAvailable() {
		t.Skip("ffmpeg not available")
	}

	a := NewAnalyzer(pitch.DefaultConfig(44100), DefaultFilterConfig())
	if _, err := a.AnalyzeFile(context.Background(), "/nonexistent/song.mp3"); err == nil {
		t.Fatal("AnalyzeFile accepted a missing file")
	}
}
