// Package karaoke turns timed lyric lines into karaoke subtitle events.
//
// Every line becomes a pair of Comment events sharing the same start and end:
// one on the native style carrying "kanji|kana" syllables and one on the roman
// style carrying romanized syllables. Each syllable is prefixed with a {\kN}
// tag whose duration runs to the start of the following syllable so the
// highlight never pauses inside a line.
package karaoke

import (
	"fmt"
	"math"
	"strings"

	"lyricsync/internal/align"
	"lyricsync/internal/ass"
	"lyricsync/internal/services"
)

const (
	// Effect marks events as karaoke templates.
	Effect = "karaoke"
	// OriginalTimingKey is the script info field naming who timed the file.
	OriginalTimingKey = "Original Timing"

	DefaultNativeStyle = "Sample KM [Up]"
	DefaultRomanStyle  = "Sample KM [Down]"
)

// Emitter writes karaoke events into a document.
type Emitter struct {
	NativeStyle string
	RomanStyle  string
	// OriginalTiming is stored in the script info when non-empty.
	OriginalTiming string
}

// KDuration returns the \k duration in centiseconds between two times in seconds.
func KDuration(start, end float64) int {
	return int(math.Round((end - start) * 100))
}

// Emit appends two events per line to doc.
func (e Emitter) Emit(doc *ass.Document, lines []align.Line) error {
	native := e.NativeStyle
	if native == "" {
		native = DefaultNativeStyle
	}
	roman := e.RomanStyle
	if roman == "" {
		roman = DefaultRomanStyle
	}
	for _, style := range []string{native, roman} {
		if !doc.HasStyle(style) {
			return services.Wrap(services.ErrConfiguration, "subtitles", "emit karaoke",
				fmt.Sprintf("template has no style %q", style), nil)
		}
	}
	if e.OriginalTiming != "" {
		doc.SetInfo(OriginalTimingKey, e.OriginalTiming)
	}

	flag := 0
	for _, line := range lines {
		line = line.TrimSeparators()
		start, end, ok := line.Bounds()
		if !ok {
			continue
		}
		nativeText, romanText := render(line)
		startMS := int64(math.Round(start * 1000))
		endMS := int64(math.Round(end * 1000))

		doc.Events = append(doc.Events,
			ass.Event{
				Type: ass.Comment, Start: startMS, End: endMS, Style: native,
				MarginV: flag, Effect: Effect, Text: nativeText,
			},
			ass.Event{
				Type: ass.Comment, Start: startMS, End: endMS, Style: roman,
				MarginV: flag - 1, Effect: Effect, Text: romanText,
			},
		)
		flag = 1 - flag
	}
	return nil
}

// render builds the native and roman karaoke text of one line.
func render(line align.Line) (string, string) {
	var native, roman strings.Builder
	for i, item := range line {
		if item.IsSeparator() {
			continue
		}
		syl := item.Syllable
		value := ass.Sanitize(syl.String())
		snap := syl.EndS
		if i+1 < len(line) {
			next := line[i+1]
			if next.IsSeparator() {
				value += " "
				if i+2 < len(line) && !line[i+2].IsSeparator() {
					snap = line[i+2].Syllable.StartS
				}
			} else {
				snap = next.Syllable.StartS
			}
		}
		k := KDuration(syl.StartS, snap)
		fmt.Fprintf(&native, `{\k%d}%s`, k, value)
		fmt.Fprintf(&roman, `{\k%d}%s`, k, ass.Sanitize(syl.Roman))
	}
	return native.String(), roman.String()
}
