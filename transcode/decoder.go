package transcode

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"

	"github.com/RyanBlaney/sonido-pitch/logging"
)

// AudioData is a decoded audio buffer: mono float64 PCM at a known
// sample rate, ready for pitch analysis.
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
}

// DecoderConfig configures FFmpeg-based decoding. Every input is
// downmixed to mono and resampled to TargetSampleRate so the analysis
// chain never sees format variation.
type DecoderConfig struct {
	FFmpegPath       string        `json:"ffmpeg_path"`
	TargetSampleRate int           `json:"target_sample_rate"`

	// MaxDuration truncates the decode when positive. Zero means no
	// limit.
	MaxDuration time.Duration `json:"max_duration"`

	Timeout time.Duration `json:"timeout"`
}

// DefaultDecoderConfig returns the default decoder configuration.
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		FFmpegPath:       "ffmpeg", // Assume in PATH
		TargetSampleRate: 44100,
		MaxDuration:      0,
		Timeout:          60 * time.Second,
	}
}

// Decoder handles audio decoding using FFmpeg
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// DecodeFile decodes an audio file into mono PCM. FFmpeg handles the
// container and codec zoo; we only ask it for raw f64le on stdout.
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"filename":  filename,
	})

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", filename,
	}
	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", d.config.MaxDuration.Seconds()))
	}
	args = append(args,
		"-vn",
		"-map", "0:a:0?",
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
		"pipe:1",
	)

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)

	startTime := time.Now()
	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			logger.Error(err, "FFmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
			return nil, fmt.Errorf("ffmpeg decode failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded from %s", filename)
	}

	duration := time.Duration(len(samples)) * time.Second / time.Duration(d.config.TargetSampleRate)
	logger.Debug("decode completed", logging.Fields{
		"samples":     len(samples),
		"duration":    duration.Seconds(),
		"sample_rate": d.config.TargetSampleRate,
		"decode_time": time.Since(startTime).Seconds(),
	})

	return &AudioData{
		PCM:        samples,
		SampleRate: d.config.TargetSampleRate,
		Duration:   duration,
	}, nil
}

// IsAvailable reports whether the configured FFmpeg binary can run.
func (d *Decoder) IsAvailable() bool {
	return exec.Command(d.config.FFmpegPath, "-version").Run() == nil
}

// bytesToFloat64 reinterprets raw f64le bytes as samples. A trailing
// partial sample from a truncated pipe is dropped.
func bytesToFloat64(data []byte) []float64 {
	n := len(data) / 8
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}
