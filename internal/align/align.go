package align

import (
	"fmt"
	"strings"

	"lyricsync/internal/lyrics"
	"lyricsync/internal/services"
)

// TimedSyllable is a syllable with start and end times in seconds.
type TimedSyllable struct {
	lyrics.Syllable
	StartS float64
	EndS   float64
}

// ItemKind distinguishes timed syllables from word separators.
type ItemKind int

const (
	KindSyllable ItemKind = iota
	KindSeparator
)

// Item is one entry of a timed line.
type Item struct {
	Kind     ItemKind
	Syllable TimedSyllable
}

// SyllableItem wraps a timed syllable.
func SyllableItem(s TimedSyllable) Item {
	return Item{Kind: KindSyllable, Syllable: s}
}

// SeparatorItem returns a word separator placeholder.
func SeparatorItem() Item {
	return Item{Kind: KindSeparator}
}

// IsSeparator reports whether the item is a separator placeholder.
func (i Item) IsSeparator() bool {
	return i.Kind == KindSeparator
}

// Line is a timed lyric line.
type Line []Item

// Syllables returns the timed syllables of the line, skipping separators.
func (l Line) Syllables() []TimedSyllable {
	out := make([]TimedSyllable, 0, len(l))
	for _, item := range l {
		if item.Kind == KindSyllable {
			out = append(out, item.Syllable)
		}
	}
	return out
}

// Bounds returns the start of the first syllable and the end of the last one.
func (l Line) Bounds() (start, end float64, ok bool) {
	syllables := l.Syllables()
	if len(syllables) == 0 {
		return 0, 0, false
	}
	return syllables[0].StartS, syllables[len(syllables)-1].EndS, true
}

// TrimSeparators drops leading and trailing separators.
func (l Line) TrimSeparators() Line {
	start, end := 0, len(l)
	for start < end && l[start].IsSeparator() {
		start++
	}
	for end > start && l[end-1].IsSeparator() {
		end--
	}
	return l[start:end]
}

func (l Line) String() string {
	var b strings.Builder
	for _, item := range l {
		if item.IsSeparator() {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(item.Syllable.String())
	}
	return b.String()
}

// Aligner converts syllables and token spans into timed lines.
type Aligner struct {
	Tokenizer Tokenizer
	// FrameRatio is the number of audio samples per emission frame.
	FrameRatio float64
	SampleRate int
}

// Align times every syllable of lines against chunks.
func (a Aligner) Align(lines [][]lyrics.Syllable, chunks []Chunk) ([]Line, error) {
	if a.FrameRatio <= 0 || a.SampleRate <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "alignment", "time syllables",
			fmt.Sprintf("invalid frame ratio %v or sample rate %d", a.FrameRatio, a.SampleRate), nil)
	}
	tok := a.Tokenizer
	if tok == nil {
		tok = NewCharTokenizer("")
	}
	vocab := tok.Vocabulary()
	rate := float64(a.SampleRate)

	spans := newStream(chunks)
	prevEnd := 0.0
	out := make([]Line, 0, len(lines))

	for li, syllables := range lines {
		line := make(Line, 0, len(syllables))
		for si, syl := range syllables {
			if syl.IsSeparator() {
				line = append(line, SeparatorItem())
				continue
			}
			normalized := lyrics.NormalizeRoman(syl.Roman, vocab)
			tokens, err := tok.Tokenize(normalized)
			if err != nil {
				return nil, a.fail(li, si, syl, err)
			}
			if len(tokens) == 0 {
				line = append(line, SyllableItem(TimedSyllable{Syllable: syl, StartS: prevEnd, EndS: prevEnd}))
				continue
			}
			consumed, err := spans.take(len(tokens))
			if err != nil {
				return nil, a.fail(li, si, syl, err)
			}
			for i, span := range consumed {
				if span.Token != tokens[i] {
					return nil, a.fail(li, si, syl, fmt.Errorf("%w: expected %q, span %d has %q", ErrTokenMismatch, strings.Join(tokens, ""), i, span.Token))
				}
			}
			timed := TimedSyllable{
				Syllable: syl,
				StartS:   float64(consumed[0].Start) * a.FrameRatio / rate,
				EndS:     float64(consumed[len(consumed)-1].End) * a.FrameRatio / rate,
			}
			prevEnd = timed.EndS
			line = append(line, SyllableItem(timed))
		}
		for len(line) > 0 && line[len(line)-1].IsSeparator() {
			line = line[:len(line)-1]
		}
		if len(line) == 0 {
			continue
		}
		out = append(out, line)
	}

	if left := spans.remaining(); left > 0 {
		return nil, services.Wrap(services.ErrValidation, "alignment", "time syllables",
			fmt.Sprintf("%d spans left after the last syllable", left), ErrUnconsumedSpans)
	}
	return out, nil
}

func (a Aligner) fail(line, index int, syl lyrics.Syllable, err error) error {
	return services.Wrap(services.ErrValidation, "alignment", "time syllables",
		fmt.Sprintf("line %d syllable %d %q (%q)", line+1, index+1, syl.String(), syl.Roman), err)
}
