// Package config loads, normalizes, and validates lyricsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// LYRICSYNC_LOG_LEVEL and LYRICSYNC_CUDA. The Config type centralizes every knob
// the pipeline and CLI need: working and cache directories, the romanization
// engine, forced alignment settings, line layout, and subtitle styles.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
