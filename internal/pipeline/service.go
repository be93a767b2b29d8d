package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"lyricsync/internal/align"
	"lyricsync/internal/aligncache"
	"lyricsync/internal/ass"
	"lyricsync/internal/config"
	"lyricsync/internal/fileutil"
	"lyricsync/internal/furigana"
	"lyricsync/internal/karaoke"
	"lyricsync/internal/logging"
	"lyricsync/internal/lyrics"
	"lyricsync/internal/rewrap"
	"lyricsync/internal/romanize"
	"lyricsync/internal/services"
	"lyricsync/internal/services/forcealign"
)

// Stage names used in logs and error messages.
const (
	StageLyrics    = "lyrics"
	StageAlignment = "alignment"
	StageTiming    = "timing"
	StageLayout    = "layout"
	StageEmission  = "emission"
)

// Service wires the lyric model, engines and subtitle writer together.
type Service struct {
	cfg       *config.Config
	logger    *slog.Logger
	romanizer romanize.Romanizer
	tokenizer align.Tokenizer
	engine    forcealign.Engine
	audio     AudioPreparer
	newRunID  func() string

	annotator    *furigana.Annotator
	annotatorSet bool
	cache        Cache
	cacheSet     bool
	closers      []func() error
}

// Result summarizes a completed run.
type Result struct {
	RunID      string
	OutputPath string
	Lines      int
	Syllables  int
	Words      int
	CacheHit   bool
	Elapsed    time.Duration
}

// New builds a Service from configuration. Options override the engines that
// would otherwise be constructed from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "config required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Service{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		tokenizer: align.NewCharTokenizer(""),
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.romanizer == nil {
		s.romanizer = NewRomanizer(cfg)
	}
	if s.engine == nil || s.audio == nil {
		svc := forcealign.NewService(forcealign.Config{
			Command:      cfg.Alignment.Command,
			CUDAEnabled:  cfg.Alignment.CUDAEnabled,
			SampleRate:   cfg.Alignment.SampleRate,
			VocalsModel:  cfg.Vocals.Model,
			FFmpegBinary: cfg.FFmpegBinary(),
		})
		if s.engine == nil {
			s.engine = svc
		}
		if s.audio == nil {
			s.audio = svc
		}
	}
	if !s.annotatorSet && cfg.Romanization.AutoFurigana {
		annotator, err := furigana.NewDefault()
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "load furigana dictionary", err)
		}
		s.annotator = annotator
	}
	if !s.cacheSet && cfg.Alignment.CacheEnabled {
		store, err := aligncache.Open(cfg)
		if err != nil {
			logging.WarnWithContext(s.logger, "alignment cache unavailable", "cache_open_failed",
				logging.Error(err),
				logging.Hint("delete the cache database or set alignment.cache_enabled = false"),
				logging.Impact("every run re-aligns from scratch"))
		} else {
			if from, rebuilt := store.RebuiltFrom(); rebuilt {
				s.logger.Info("alignment cache rebuilt",
					logging.Args(logging.DecisionAttrs("alignment_cache", "rebuilt",
						fmt.Sprintf("schema version %d is no longer read", from))...)...)
			}
			s.cache = store
			s.closers = append(s.closers, store.Close)
		}
	}
	return s, nil
}

// NewRomanizer returns the configured romanization engine wrapped in a cache.
func NewRomanizer(cfg *config.Config) romanize.Romanizer {
	if cfg.Romanization.Engine == config.RomanizerUroman {
		return romanize.NewCached(romanize.NewUroman(cfg.Romanization.UromanCommand, cfg.Paths.WorkDir))
	}
	return romanize.NewCached(romanize.Kana{})
}

// Close releases resources opened by New.
func (s *Service) Close() error {
	var errs []error
	for _, closer := range s.closers {
		errs = append(errs, closer())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// LoadLyrics reads and parses a lyrics file, adding furigana when enabled.
func (s *Service) LoadLyrics(path string) (*lyrics.Text, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, StageLyrics, "read", path, err)
		}
		return nil, services.Wrap(services.ErrConfiguration, StageLyrics, "read", path, err)
	}
	text := lyrics.Parse(strings.TrimPrefix(string(data), "\ufeff"), s.romanizer)
	if s.annotator != nil {
		text = s.annotator.Annotate(text)
	}
	return text, nil
}

// Run processes one song and writes its subtitle file.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	result := Result{RunID: s.newRunID(), OutputPath: req.outputPath()}

	if err := s.validateRequest(req); err != nil {
		return result, err
	}

	song := strings.TrimSuffix(filepath.Base(req.AudioPath), filepath.Ext(req.AudioPath))
	ctx = services.WithRunID(ctx, result.RunID)
	ctx = services.WithSong(ctx, song)
	logger := logging.WithContext(ctx, s.logger)

	if err := os.MkdirAll(filepath.Dir(result.OutputPath), 0o755); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "pipeline", "prepare output", result.OutputPath, err)
	}
	lock := flock.New(result.OutputPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, "pipeline", "lock output", result.OutputPath, err)
	}
	if !locked {
		return result, services.Wrap(services.ErrValidation, "pipeline", "lock output",
			fmt.Sprintf("another run is writing %s", result.OutputPath), nil)
	}
	// The lock file is never removed so every run contends on the same inode.
	defer func() { _ = lock.Unlock() }()

	workDir, cleanup, err := s.workDir(req, result.RunID)
	if err != nil {
		return result, err
	}
	defer cleanup()

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("audio", req.AudioPath),
		logging.String("lyrics", req.LyricsPath),
		logging.String("output", result.OutputPath),
		logging.Bool("extract_vocals", req.ExtractVocals),
	)

	var (
		lineSyllables [][]lyrics.Syllable
		transcript    []string
		alignment     forcealign.Result
		timed         []align.Line
	)

	err = s.stage(ctx, StageLyrics, func(ctx context.Context, logger *slog.Logger) error {
		var stageErr error
		lineSyllables, transcript, stageErr = s.prepareLyrics(req.LyricsPath)
		if stageErr != nil {
			return stageErr
		}
		logger.Info("lyrics prepared",
			logging.Int("lines", len(lineSyllables)),
			logging.Int("words", len(transcript)))
		return nil
	})
	if err != nil {
		return result, err
	}
	result.Words = len(transcript)

	err = s.stage(ctx, StageAlignment, func(ctx context.Context, logger *slog.Logger) error {
		var stageErr error
		alignment, result.CacheHit, stageErr = s.alignAudio(ctx, logger, req, workDir, transcript)
		return stageErr
	})
	if err != nil {
		return result, err
	}

	err = s.stage(ctx, StageTiming, func(context.Context, *slog.Logger) error {
		aligner := align.Aligner{
			Tokenizer:  s.tokenizer,
			FrameRatio: alignment.FrameRatio(),
			SampleRate: alignment.SampleRate,
		}
		var stageErr error
		timed, stageErr = aligner.Align(lineSyllables, alignment.Chunks)
		return stageErr
	})
	if err != nil {
		return result, err
	}

	maxLine := req.MaxLineLength
	if maxLine == 0 {
		maxLine = s.cfg.Layout.MaxLineLength
	}
	if maxLine > 0 {
		err = s.stage(ctx, StageLayout, func(_ context.Context, logger *slog.Logger) error {
			metricName := req.Metric
			if metricName == "" {
				metricName = s.cfg.Layout.Metric
			}
			metric, stageErr := rewrap.ParseMetric(metricName)
			if stageErr != nil {
				return services.Wrap(services.ErrConfiguration, StageLayout, "parse metric", "", stageErr)
			}
			before := len(timed)
			timed, stageErr = rewrap.Wrap(timed, maxLine, metric)
			if stageErr != nil {
				return stageErr
			}
			logger.Debug("lines rewrapped",
				logging.Int("before", before),
				logging.Int("after", len(timed)),
				logging.Int("max_line_length", maxLine),
				logging.String("metric", metric.String()))
			return nil
		})
		if err != nil {
			return result, err
		}
	}

	err = s.stage(ctx, StageEmission, func(context.Context, *slog.Logger) error {
		return s.emit(timed, result.RunID, result.OutputPath)
	})
	if err != nil {
		return result, err
	}

	result.Lines = len(timed)
	for _, line := range timed {
		result.Syllables += len(line.Syllables())
	}
	result.Elapsed = time.Since(started)
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output", result.OutputPath),
		logging.Int("lines", result.Lines),
		logging.Int("syllables", result.Syllables),
		logging.Bool("cache_hit", result.CacheHit),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (s *Service) validateRequest(req Request) error {
	if strings.TrimSpace(req.AudioPath) == "" {
		return services.Wrap(services.ErrValidation, "pipeline", "validate request", "audio path required", nil)
	}
	if strings.TrimSpace(req.LyricsPath) == "" {
		return services.Wrap(services.ErrValidation, "pipeline", "validate request", "lyrics path required", nil)
	}
	if req.MaxLineLength < 0 {
		return services.Wrap(services.ErrConfiguration, "pipeline", "validate request",
			"max line length must not be negative", rewrap.ErrInvalidMaxLength)
	}
	if _, err := os.Stat(req.AudioPath); err != nil {
		return services.Wrap(services.ErrNotFound, "pipeline", "validate request", req.AudioPath, err)
	}
	return nil
}

func (s *Service) workDir(req Request, runID string) (string, func(), error) {
	if strings.TrimSpace(req.WorkDir) != "" {
		if err := os.MkdirAll(req.WorkDir, 0o755); err != nil {
			return "", nil, services.Wrap(services.ErrConfiguration, "pipeline", "work dir", req.WorkDir, err)
		}
		return req.WorkDir, func() {}, nil
	}
	dir := filepath.Join(s.cfg.Paths.WorkDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, services.Wrap(services.ErrConfiguration, "pipeline", "work dir", dir, err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// stage runs fn under a stage-scoped context and logger.
func (s *Service) stage(ctx context.Context, name string, fn func(context.Context, *slog.Logger) error) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrTimeout, name, "start", "run cancelled", err)
	}
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, s.logger)
	start := time.Now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := fn(stageCtx, logger); err != nil {
		logging.ErrorWithContext(logger, "stage failed", "stage_failure",
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err))
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Service) prepareLyrics(path string) ([][]lyrics.Syllable, []string, error) {
	text, err := s.LoadLyrics(path)
	if err != nil {
		return nil, nil, err
	}
	vocab := s.tokenizer.Vocabulary()
	var (
		lines      [][]lyrics.Syllable
		transcript []string
	)
	for i, line := range text.Lines() {
		syllables, err := line.Syllables()
		if err != nil {
			return nil, nil, services.Wrap(services.ErrValidation, StageLyrics, "syllables",
				fmt.Sprintf("line %d", i+1), err)
		}
		words, err := line.Transcript(vocab)
		if err != nil {
			return nil, nil, services.Wrap(services.ErrValidation, StageLyrics, "transcript",
				fmt.Sprintf("line %d", i+1), err)
		}
		lines = append(lines, syllables)
		transcript = append(transcript, words...)
	}
	if len(transcript) == 0 {
		return nil, nil, services.Wrap(services.ErrValidation, StageLyrics, "transcript",
			"lyrics contain nothing to align", nil)
	}
	return lines, transcript, nil
}

func (s *Service) alignAudio(ctx context.Context, logger *slog.Logger, req Request, workDir string, transcript []string) (forcealign.Result, bool, error) {
	var key aligncache.Key
	if s.cache != nil {
		audioHash, err := fileutil.HashFile(req.AudioPath)
		if err != nil {
			return forcealign.Result{}, false, services.Wrap(services.ErrNotFound, StageAlignment, "hash audio", req.AudioPath, err)
		}
		key = aligncache.NewKey(s.audioVariant(audioHash, req.ExtractVocals), transcript, s.cfg.Alignment.Bundle)
		cached, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			logging.WarnWithContext(logger, "alignment cache lookup failed", "cache_lookup_failed",
				logging.Error(err),
				logging.Impact("aligning from scratch"))
		case ok:
			if verr := cached.Validate(s.tokenizer, transcript); verr == nil {
				logger.Info("alignment cache hit", logging.Args(logging.DecisionAttrs("alignment_cache", "hit", "audio and transcript unchanged")...)...)
				return cached, true, nil
			}
			logging.WarnWithContext(logger, "cached alignment rejected", "cache_entry_invalid",
				logging.Impact("aligning from scratch"))
		}
	}

	audioPath, err := s.audio.PrepareAudio(ctx, req.AudioPath, workDir, req.ExtractVocals)
	if err != nil {
		return forcealign.Result{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return forcealign.Result{}, false, services.Wrap(services.ErrTimeout, StageAlignment, "align", "run cancelled", err)
	}
	result, err := s.engine.Align(ctx, audioPath, transcript)
	if err != nil {
		return forcealign.Result{}, false, err
	}
	if err := result.Validate(s.tokenizer, transcript); err != nil {
		return forcealign.Result{}, false, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, result); err != nil {
			logging.WarnWithContext(logger, "failed to store alignment", "cache_store_failed",
				logging.Error(err),
				logging.Impact("next run will re-align this song"))
		}
	}
	return result, false, nil
}

// audioVariant folds preparation settings into the audio digest so a vocal
// stem and the full mix never share a cache entry.
func (s *Service) audioVariant(audioHash string, vocals bool) string {
	variant := "mix"
	if vocals {
		variant = "vocals:" + s.cfg.Vocals.Model
	}
	return fileutil.HashStrings(audioHash, variant, fmt.Sprint(s.cfg.Alignment.SampleRate))
}

func (s *Service) emit(lines []align.Line, runID, output string) error {
	doc, err := ass.LoadTemplate(s.cfg.Subtitles.TemplatePath)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, StageEmission, "load template", s.cfg.Subtitles.TemplatePath, err)
	}
	emitter := karaoke.Emitter{
		NativeStyle:    s.cfg.Subtitles.NativeStyle,
		RomanStyle:     s.cfg.Subtitles.RomanStyle,
		OriginalTiming: "lyricsync " + runID,
	}
	if err := emitter.Emit(doc, lines); err != nil {
		return err
	}
	if err := doc.Save(output); err != nil {
		return services.Wrap(services.ErrConfiguration, StageEmission, "save", output, err)
	}
	return nil
}
