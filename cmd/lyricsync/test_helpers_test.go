package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lyricsync/internal/align"
	"lyricsync/internal/config"
	"lyricsync/internal/pipeline"
	"lyricsync/internal/services/forcealign"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	cacheDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("LYRICSYNC_LOG_LEVEL", "")
	t.Setenv("LYRICSYNC_CUDA", "")

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "lyricsync.toml"),
		cacheDir:   filepath.Join(base, "cache"),
	}
	content := fmt.Sprintf(`[paths]
work_dir = %q
cache_dir = %q
log_dir = %q

[romanization]
auto_furigana = false

[vocals]
enabled = false

[logging]
level = "error"
`, filepath.Join(base, "work"), env.cacheDir, filepath.Join(base, "logs"))
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) writeLyrics(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write lyrics: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// stubEngine aligns every token to consecutive frames.
type stubEngine struct{}

func (stubEngine) Align(_ context.Context, _ string, transcript []string) (forcealign.Result, error) {
	tok := align.NewCharTokenizer("")
	frame := 0
	chunks := make([]align.Chunk, 0, len(transcript))
	for _, word := range transcript {
		tokens, err := tok.Tokenize(word)
		if err != nil {
			return forcealign.Result{}, err
		}
		chunk := make(align.Chunk, 0, len(tokens))
		for _, token := range tokens {
			chunk = append(chunk, align.TokenSpan{Token: token, Start: frame, End: frame + 1, Score: 1})
			frame += 3
		}
		chunks = append(chunks, chunk)
	}
	return forcealign.Result{NumFrames: 500, NumSamples: 160000, SampleRate: 16000, Chunks: chunks}, nil
}

type stubAudio struct{}

func (stubAudio) PrepareAudio(_ context.Context, source, workDir string, _ bool) (string, error) {
	return filepath.Join(workDir, filepath.Base(source)+".wav"), nil
}

// stubPipelines routes newPipeline through fake engines for the test's duration.
func stubPipelines(t *testing.T) {
	t.Helper()
	original := newPipeline
	newPipeline = func(cfg *config.Config, logger *slog.Logger, opts ...pipeline.Option) (*pipeline.Service, error) {
		opts = append([]pipeline.Option{
			pipeline.WithEngine(stubEngine{}),
			pipeline.WithAudioPreparer(stubAudio{}),
		}, opts...)
		return original(cfg, logger, opts...)
	}
	t.Cleanup(func() { newPipeline = original })
}
