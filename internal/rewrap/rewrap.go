// Package rewrap re-segments timed lyric lines under a maximum display length.
package rewrap

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"lyricsync/internal/align"
	"lyricsync/internal/lyrics"
	"lyricsync/internal/services"
)

// ErrInvalidMaxLength reports a non-positive line length budget.
var ErrInvalidMaxLength = errors.New("maximum line length must be positive")

// Metric measures the displayed length of a syllable.
type Metric int

const (
	// MetricRoman counts the runes of the romanized form.
	MetricRoman Metric = iota
	// MetricNative counts the runes shown on the native track.
	MetricNative
)

// ParseMetric maps a configuration value to a Metric.
func ParseMetric(value string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "roman":
		return MetricRoman, nil
	case "native":
		return MetricNative, nil
	default:
		return MetricRoman, fmt.Errorf("unknown line metric %q", value)
	}
}

func (m Metric) String() string {
	if m == MetricNative {
		return "native"
	}
	return "roman"
}

// Length returns the length of a single line item under m. Separators count 1.
func (m Metric) Length(item align.Item) int {
	if item.IsSeparator() {
		return 1
	}
	return m.syllableLength(item.Syllable.Syllable)
}

func (m Metric) syllableLength(s lyrics.Syllable) int {
	if m == MetricRoman {
		return utf8.RuneCountInString(s.Roman)
	}
	switch {
	case s.IsContinuation():
		return 0
	case s.Kanji != "":
		return utf8.RuneCountInString(s.Kanji)
	default:
		return utf8.RuneCountInString(s.Kana)
	}
}

// LineLength sums the length of every item in line.
func (m Metric) LineLength(line align.Line) int {
	total := 0
	for _, item := range line {
		total += m.Length(item)
	}
	return total
}

// Wrap splits lines so none exceeds max under metric. Syllables are never
// split. When a separator would overflow the budget it becomes the break point
// and is dropped; leading and trailing separators of every output line are
// trimmed. A syllable longer than max is placed on a line of its own.
func Wrap(lines []align.Line, max int, metric Metric) ([]align.Line, error) {
	if max <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "layout", "rewrap lines",
			fmt.Sprintf("max line length %d", max), ErrInvalidMaxLength)
	}

	out := make([]align.Line, 0, len(lines))
	emit := func(line align.Line) {
		line = line.TrimSeparators()
		if len(line) == 0 {
			return
		}
		cp := make(align.Line, len(line))
		copy(cp, line)
		out = append(out, cp)
	}

	for _, line := range lines {
		var (
			current align.Line
			length  int
		)
		for _, item := range line {
			size := metric.Length(item)
			if length+size > max && len(current.TrimSeparators()) > 0 {
				emit(current)
				current, length = nil, 0
				if item.IsSeparator() {
					continue
				}
			}
			if item.IsSeparator() && len(current) == 0 {
				continue
			}
			current = append(current, item)
			length += size
		}
		emit(current)
	}
	return out, nil
}
