package separate

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-pitch/logging"
)

// SeparatorConfig configures vocal isolation via an external Demucs
// style stem separator.
type SeparatorConfig struct {
	// Command is the separator binary, expected to accept
	// "--two-stems=vocals <input>" and write
	// separated/<model>/<stem>/vocals.wav under its working directory.
	Command string `json:"command"`

	// Model names the subdirectory the separator writes under
	// "separated".
	Model string `json:"model"`

	Timeout time.Duration `json:"timeout"`
}

// DefaultSeparatorConfig returns the default separator configuration.
func DefaultSeparatorConfig() *SeparatorConfig {
	return &SeparatorConfig{
		Command: "demucs", // Assume in PATH
		Model:   "htdemucs",
		Timeout: 10 * time.Minute,
	}
}

// Separator extracts the vocal stem from a mixed track so pitch
// analysis is not confused by accompaniment.
type Separator struct {
	config *SeparatorConfig
	logger logging.Logger
}

// NewSeparator creates a separator.
func NewSeparator(config *SeparatorConfig) *Separator {
	if config == nil {
		config = DefaultSeparatorConfig()
	}
	return &Separator{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "separator",
		}),
	}
}

// VocalPath returns where IsolateVocals places the vocal stem for the
// given input: "<stem>_vocals.wav" beside the input file.
func VocalPath(inputPath string) string {
	dir := filepath.Dir(inputPath)
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(dir, stem+"_vocals.wav")
}

// IsolateVocals runs the separator on inputPath and returns the path of
// the isolated vocal track. An already existing vocal file is reused
// without rerunning the separator. On any failure the original input
// remains untouched and analyzable; the caller decides whether to fall
// back to it.
func (s *Separator) IsolateVocals(ctx context.Context, inputPath string) (string, error) {
	target := VocalPath(inputPath)
	logger := s.logger.WithFields(logging.Fields{
		"input":  inputPath,
		"target": target,
	})

	if _, err := os.Stat(target); err == nil {
		logger.Debug("vocal file already exists, skipping separation")
		return target, nil
	}

	absInput, err := filepath.Abs(inputPath)
	if err != nil {
		return "", fmt.Errorf("resolve input path: %w", err)
	}

	// The separator writes its stems relative to the working
	// directory, so run it in a scratch dir we can discard wholesale.
	scratch, err := os.MkdirTemp("", "separate-")
	if err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.config.Command, "--two-stems=vocals", absInput)
	cmd.Dir = scratch

	startTime := time.Now()
	if output, err := cmd.CombinedOutput(); err != nil {
		logger.Error(err, "separation failed", logging.Fields{
			"output": string(output),
		})
		return "", fmt.Errorf("%s failed: %w", s.config.Command, err)
	}

	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	generated := filepath.Join(scratch, "separated", s.config.Model, stem, "vocals.wav")
	if _, err := os.Stat(generated); err != nil {
		return "", fmt.Errorf("separator produced no vocal stem at %s: %w", generated, err)
	}

	if err := moveFile(generated, target); err != nil {
		return "", fmt.Errorf("move vocal stem: %w", err)
	}

	logger.Debug("separation complete", logging.Fields{
		"duration": time.Since(startTime).Seconds(),
	})
	return target, nil
}

// moveFile renames src to dst, copying when they sit on different
// filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
