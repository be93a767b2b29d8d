package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"lyricsync/internal/aligncache"
	"lyricsync/internal/furigana"
	"lyricsync/internal/romanize"
	"lyricsync/internal/services/forcealign"
)

// AudioPreparer turns a source song into audio the aligner accepts.
type AudioPreparer interface {
	PrepareAudio(ctx context.Context, source, workDir string, extractVocals bool) (string, error)
}

// Cache stores alignment results between runs.
type Cache interface {
	Get(ctx context.Context, key aligncache.Key) (forcealign.Result, bool, error)
	Put(ctx context.Context, key aligncache.Key, result forcealign.Result) error
}

// Option customizes a Service.
type Option func(*Service)

// WithEngine replaces the forced alignment engine.
func WithEngine(engine forcealign.Engine) Option {
	return func(s *Service) { s.engine = engine }
}

// WithAudioPreparer replaces audio preparation.
func WithAudioPreparer(audio AudioPreparer) Option {
	return func(s *Service) { s.audio = audio }
}

// WithCache sets the alignment cache. A nil cache disables caching.
func WithCache(cache Cache) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheSet = true
	}
}

// WithRomanizer replaces the configured romanization engine.
func WithRomanizer(r romanize.Romanizer) Option {
	return func(s *Service) { s.romanizer = r }
}

// WithAnnotator replaces automatic furigana. A nil annotator disables it.
func WithAnnotator(a *furigana.Annotator) Option {
	return func(s *Service) {
		s.annotator = a
		s.annotatorSet = true
	}
}

// WithRunIDs overrides run id generation.
func WithRunIDs(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newRunID = next
		}
	}
}

// Request describes one run.
type Request struct {
	AudioPath  string
	LyricsPath string
	// OutputPath defaults to the audio path with an .ass extension.
	OutputPath string
	// ExtractVocals separates the vocal stem before alignment.
	ExtractVocals bool
	// MaxLineLength rewraps lines when positive.
	MaxLineLength int
	// Metric is "roman" or "native".
	Metric string
	// WorkDir keeps intermediate files when set; otherwise a per-run directory
	// under the configured work dir is used and removed afterwards.
	WorkDir string
}

func (r Request) outputPath() string {
	if strings.TrimSpace(r.OutputPath) != "" {
		return r.OutputPath
	}
	base := strings.TrimSuffix(r.AudioPath, filepath.Ext(r.AudioPath))
	return base + ".ass"
}
