package forcealign

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"lyricsync/internal/align"
	"lyricsync/internal/services"
)

// Engine aligns a transcript of romanized words against an audio file.
type Engine interface {
	Align(ctx context.Context, audioPath string, transcript []string) (Result, error)
}

// Result is the raw output of one forced alignment run.
type Result struct {
	NumFrames  int           `json:"num_frames"`
	NumSamples int           `json:"num_samples"`
	SampleRate int           `json:"sample_rate"`
	Chunks     []align.Chunk `json:"chunks"`
}

// FrameRatio returns audio samples per emission frame.
func (r Result) FrameRatio() float64 {
	if r.NumFrames <= 0 {
		return 0
	}
	return float64(r.NumSamples) / float64(r.NumFrames)
}

// Validate checks the result against the transcript it was produced for.
func (r Result) Validate(tok align.Tokenizer, transcript []string) error {
	if r.NumFrames <= 0 || r.NumSamples <= 0 || r.SampleRate <= 0 {
		return services.Wrap(services.ErrValidation, "alignment", "validate",
			fmt.Sprintf("invalid dimensions frames=%d samples=%d rate=%d", r.NumFrames, r.NumSamples, r.SampleRate), nil)
	}
	if len(r.Chunks) != len(transcript) {
		return services.Wrap(services.ErrValidation, "alignment", "validate",
			fmt.Sprintf("got %d chunks for %d transcript words", len(r.Chunks), len(transcript)), nil)
	}
	want, err := align.CountTokens(tok, transcript)
	if err != nil {
		return services.Wrap(services.ErrValidation, "alignment", "validate", "tokenize transcript", err)
	}
	if got := align.CountSpans(r.Chunks); got != want {
		return services.Wrap(services.ErrValidation, "alignment", "validate",
			fmt.Sprintf("got %d token spans for %d transcript tokens", got, want), nil)
	}
	return nil
}

// Service runs audio preparation and MMS_FA alignment through external tools.
type Service struct {
	cfg           Config
	tokenizer     align.Tokenizer
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates an alignment service with the given configuration.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg, tokenizer: align.NewCharTokenizer("")}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// CUDAEnabled returns whether CUDA is enabled.
func (s *Service) CUDAEnabled() bool {
	return s.cfg.CUDAEnabled
}

// Tokenizer returns the tokenizer matching the acoustic model's vocabulary.
func (s *Service) Tokenizer() align.Tokenizer {
	return s.tokenizer
}

// Align runs the MMS_FA script against audioPath and returns validated spans.
func (s *Service) Align(ctx context.Context, audioPath string, transcript []string) (Result, error) {
	var result Result
	if strings.TrimSpace(audioPath) == "" {
		return result, services.Wrap(services.ErrValidation, "alignment", "align", "audio path required", nil)
	}
	if len(transcript) == 0 {
		return result, services.Wrap(services.ErrValidation, "alignment", "align", "empty transcript", nil)
	}
	if _, err := align.CountTokens(s.tokenizer, transcript); err != nil {
		return result, services.Wrap(services.ErrValidation, "alignment", "align", "transcript outside model vocabulary", err)
	}

	tmpDir, err := os.MkdirTemp(filepath.Dir(audioPath), "align-")
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, "alignment", "align", "failed to create temp dir", err)
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "transcript.json")
	outputPath := filepath.Join(tmpDir, "alignment.json")
	payload, err := json.Marshal(transcript)
	if err != nil {
		return result, fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(inputPath, payload, 0o644); err != nil {
		return result, fmt.Errorf("write transcript: %w", err)
	}

	args := s.buildAlignArgs(audioPath, inputPath, outputPath)
	if err := s.run(ctx, s.command(), args...); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "alignment", "align", "MMS_FA alignment failed", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "alignment", "align", "aligner produced no output", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "alignment", "align", "parse aligner output", err)
	}
	if err := result.Validate(s.tokenizer, transcript); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (s *Service) buildAlignArgs(audioPath, inputPath, outputPath string) []string {
	args := make([]string, 0, 16)
	args = append(args, s.indexArgs()...)
	args = append(args,
		"--from", alignPackage,
		"--with", "torch",
		"--with", "soundfile",
		"python",
		"-c", mmsAlignerScript,
		audioPath,
		inputPath,
		outputPath,
		s.device(),
	)
	return args
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
