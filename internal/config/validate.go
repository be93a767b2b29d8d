package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRomanization(); err != nil {
		return err
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if err := c.validateLayout(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRomanization() error {
	switch c.Romanization.Engine {
	case RomanizerKana, RomanizerUroman:
	default:
		return fmt.Errorf("romanization.engine: unsupported value %q (want %q or %q)", c.Romanization.Engine, RomanizerKana, RomanizerUroman)
	}
	if c.Romanization.Engine == RomanizerUroman && strings.TrimSpace(c.Romanization.UromanCommand) == "" {
		return errors.New("romanization.uroman_command must be set when romanization.engine is uroman")
	}
	return nil
}

func (c *Config) validateAlignment() error {
	if strings.TrimSpace(c.Alignment.Command) == "" {
		return errors.New("alignment.command must be set")
	}
	if c.Alignment.Bundle != defaultAlignBundle {
		return fmt.Errorf("alignment.bundle: unsupported value %q", c.Alignment.Bundle)
	}
	if c.Alignment.SampleRate <= 0 {
		return errors.New("alignment.sample_rate must be positive")
	}
	return nil
}

func (c *Config) validateLayout() error {
	if c.Layout.MaxLineLength < 0 {
		return errors.New("layout.max_line_length must be zero (disabled) or positive")
	}
	switch c.Layout.Metric {
	case MetricRoman, MetricNative:
	default:
		return fmt.Errorf("layout.metric: unsupported value %q (want %q or %q)", c.Layout.Metric, MetricRoman, MetricNative)
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.NativeStyle == c.Subtitles.RomanStyle {
		return errors.New("subtitles.native_style and subtitles.roman_style must differ")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
