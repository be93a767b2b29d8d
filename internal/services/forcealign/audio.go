package forcealign

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"lyricsync/internal/services"
)

// PrepareAudio resamples source into a mono WAV under workDir, separating the
// vocal stem first when extractVocals is set. It returns the prepared path.
func (s *Service) PrepareAudio(ctx context.Context, source, workDir string, extractVocals bool) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", services.Wrap(services.ErrValidation, "audio", "prepare", "source path required", nil)
	}
	if _, err := os.Stat(source); err != nil {
		return "", services.Wrap(services.ErrNotFound, "audio", "prepare", "source audio missing", err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "audio", "prepare", "failed to create work dir", err)
	}

	input := source
	if extractVocals {
		vocals, err := s.ExtractVocals(ctx, source, workDir)
		if err != nil {
			return "", err
		}
		input = vocals
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	dest := filepath.Join(workDir, base+".align.wav")
	if err := s.run(ctx, s.ffmpegBinary(), buildFFmpegResampleArgs(input, dest, s.sampleRate())...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "audio", "resample", "ffmpeg failed", err)
	}
	return dest, nil
}

// ExtractVocals runs demucs two-stem separation and returns the vocals stem path.
func (s *Service) ExtractVocals(ctx context.Context, source, workDir string) (string, error) {
	model := s.cfg.VocalsModel
	if model == "" {
		model = DefaultVocalsModel
	}
	outDir := filepath.Join(workDir, "separated")
	args := s.indexArgs()
	args = append(args,
		"--from", demucsPackage,
		"demucs",
		"--two-stems", "vocals",
		"-n", model,
		"-d", s.device(),
		"-o", outDir,
		source,
	)
	if err := s.run(ctx, s.command(), args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "vocals", "separate", "demucs failed", err)
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	vocals := filepath.Join(outDir, model, base, "vocals.wav")
	if _, err := os.Stat(vocals); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "vocals", "separate", "demucs produced no vocals stem", err)
	}
	return vocals, nil
}

func buildFFmpegResampleArgs(source, dest string, sampleRate int) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
}

func (s *Service) sampleRate() int {
	if s.cfg.SampleRate > 0 {
		return s.cfg.SampleRate
	}
	return DefaultSampleRate
}

func (s *Service) ffmpegBinary() string {
	if s.cfg.FFmpegBinary != "" {
		return s.cfg.FFmpegBinary
	}
	return FFmpegCommand
}

func (s *Service) command() string {
	if s.cfg.Command != "" {
		return s.cfg.Command
	}
	return UVXCommand
}

func (s *Service) device() string {
	if s.cfg.CUDAEnabled {
		return CUDADevice
	}
	return CPUDevice
}

func (s *Service) indexArgs() []string {
	if s.cfg.CUDAEnabled {
		return []string{"--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL}
	}
	return []string{"--index-url", PypiIndexURL}
}
