package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRomanization()
	if err := c.normalizeAlignment(); err != nil {
		return err
	}
	c.normalizeVocals()
	c.normalizeLayout()
	if err := c.normalizeSubtitles(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRomanization() {
	c.Romanization.Engine = strings.ToLower(strings.TrimSpace(c.Romanization.Engine))
	if c.Romanization.Engine == "" {
		c.Romanization.Engine = defaultRomanizer
	}
	c.Romanization.UromanCommand = strings.TrimSpace(c.Romanization.UromanCommand)
	if c.Romanization.UromanCommand == "" {
		c.Romanization.UromanCommand = defaultUromanCommand
	}
}

func (c *Config) normalizeAlignment() error {
	c.Alignment.Command = strings.TrimSpace(c.Alignment.Command)
	if c.Alignment.Command == "" {
		c.Alignment.Command = defaultAlignCommand
	}
	c.Alignment.Bundle = strings.ToUpper(strings.TrimSpace(c.Alignment.Bundle))
	if c.Alignment.Bundle == "" {
		c.Alignment.Bundle = defaultAlignBundle
	}
	if c.Alignment.SampleRate == 0 {
		c.Alignment.SampleRate = defaultSampleRate
	}
	if value, ok := os.LookupEnv("LYRICSYNC_CUDA"); ok && strings.TrimSpace(value) != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("LYRICSYNC_CUDA: %w", err)
		}
		c.Alignment.CUDAEnabled = enabled
	}
	return nil
}

func (c *Config) normalizeVocals() {
	c.Vocals.Model = strings.TrimSpace(c.Vocals.Model)
	if c.Vocals.Model == "" {
		c.Vocals.Model = defaultVocalsModel
	}
}

func (c *Config) normalizeLayout() {
	c.Layout.Metric = strings.ToLower(strings.TrimSpace(c.Layout.Metric))
	if c.Layout.Metric == "" {
		c.Layout.Metric = defaultMetric
	}
}

func (c *Config) normalizeSubtitles() error {
	var err error
	c.Subtitles.TemplatePath = strings.TrimSpace(c.Subtitles.TemplatePath)
	if c.Subtitles.TemplatePath != "" {
		if c.Subtitles.TemplatePath, err = expandPath(c.Subtitles.TemplatePath); err != nil {
			return fmt.Errorf("subtitles.template_path: %w", err)
		}
	}
	c.Subtitles.NativeStyle = strings.TrimSpace(c.Subtitles.NativeStyle)
	if c.Subtitles.NativeStyle == "" {
		c.Subtitles.NativeStyle = defaultNativeStyle
	}
	c.Subtitles.RomanStyle = strings.TrimSpace(c.Subtitles.RomanStyle)
	if c.Subtitles.RomanStyle == "" {
		c.Subtitles.RomanStyle = defaultRomanStyle
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("LYRICSYNC_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
