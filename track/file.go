package track

import (
	"context"

	"github.com/RyanBlaney/sonido-pitch/transcode"
)

// AnalyzeFile decodes an audio file to mono PCM at the analyzer's
// configured sample rate and runs Analyze on it. The decode step needs
// a working FFmpeg; WAV fixtures can bypass it via transcode.ReadWAVFile
// and Analyze directly.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) ([]Point, error) {
	dcfg := transcode.DefaultDecoderConfig()
	dcfg.TargetSampleRate = a.cfg.SampleRate

	data, err := transcode.NewDecoder(dcfg).DecodeFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, data.PCM)
}
