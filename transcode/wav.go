package transcode

import (
	"fmt"
	"time"

	"github.com/unixpickle/wav"
)

// ReadWAVFile reads a WAV file directly, without FFmpeg. Multi-channel
// audio is downmixed to mono by averaging; no resampling happens, the
// returned data keeps the file's own rate.
func ReadWAVFile(path string) (*AudioData, error) {
	s, err := wav.ReadSoundFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wav %s: %w", path, err)
	}

	channels := s.Channels()
	if channels < 1 {
		return nil, fmt.Errorf("wav %s has no channels", path)
	}

	interleaved := s.Samples()
	n := len(interleaved) / channels
	pcm := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(interleaved[i*channels+c])
		}
		pcm[i] = sum / float64(channels)
	}

	return &AudioData{
		PCM:        pcm,
		SampleRate: s.SampleRate(),
		Duration:   time.Duration(n) * time.Second / time.Duration(s.SampleRate()),
	}, nil
}

// WriteWAVFile writes mono samples as a 16-bit PCM WAV file. Samples
// outside [-1, 1] are clipped by the encoder.
func WriteWAVFile(path string, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	s := wav.NewPCM16Sound(1, sampleRate)
	converted := make([]wav.Sample, len(samples))
	for i, v := range samples {
		converted[i] = wav.Sample(v)
	}
	s.SetSamples(converted)

	if err := wav.WriteFile(s, path); err != nil {
		return fmt.Errorf("write wav %s: %w", path, err)
	}
	return nil
}
