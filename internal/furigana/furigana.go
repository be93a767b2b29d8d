// Package furigana adds ruby readings to kanji in plain lyric text.
//
// Lyrics usually arrive with [base](reading) annotations, but plain lyrics
// have none and kanji cannot be romanized without a reading. The Annotator
// segments plain text with a morphological analyzer (kagome with the IPA
// dictionary) and annotates every word containing kanji with its dictionary
// reading, keeping okurigana outside the annotation.
package furigana

import (
	"fmt"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"lyricsync/internal/lyrics"
)

// Morpheme is a segmented word with its katakana or hiragana reading.
type Morpheme struct {
	Surface string
	Reading string
}

// Segmenter splits Japanese text into morphemes.
type Segmenter interface {
	Segment(text string) []Morpheme
}

type kagomeSegmenter struct {
	t *tokenizer.Tokenizer
}

// NewKagomeSegmenter loads the IPA dictionary.
func NewKagomeSegmenter() (Segmenter, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("load kagome ipa dictionary: %w", err)
	}
	return kagomeSegmenter{t: t}, nil
}

func (k kagomeSegmenter) Segment(text string) []Morpheme {
	tokens := k.t.Tokenize(text)
	out := make([]Morpheme, 0, len(tokens))
	for _, tok := range tokens {
		m := Morpheme{Surface: tok.Surface}
		if reading, ok := tok.Reading(); ok && reading != "*" {
			m.Reading = reading
		}
		out = append(out, m)
	}
	return out
}

// Annotator adds readings to kanji in plain elements.
type Annotator struct {
	seg Segmenter
}

// New returns an Annotator backed by seg.
func New(seg Segmenter) *Annotator {
	return &Annotator{seg: seg}
}

// NewDefault returns an Annotator backed by kagome.
func NewDefault() (*Annotator, error) {
	seg, err := NewKagomeSegmenter()
	if err != nil {
		return nil, err
	}
	return New(seg), nil
}

// Annotate returns a copy of t where every plain word containing kanji is an
// annotation. Existing annotations are kept as they are. Words without a known
// reading stay plain.
func (a *Annotator) Annotate(t *lyrics.Text) *lyrics.Text {
	var out []lyrics.Element
	for _, e := range t.Elements() {
		if e.Kind != lyrics.KindPlain || !containsHan(e.Plain) {
			out = append(out, e)
			continue
		}
		for _, m := range a.seg.Segment(e.Plain) {
			out = append(out, annotateMorpheme(m)...)
		}
	}
	return lyrics.New(t.Romanizer(), out...)
}

func annotateMorpheme(m Morpheme) []lyrics.Element {
	if !containsHan(m.Surface) || m.Reading == "" {
		return []lyrics.Element{lyrics.PlainElement(m.Surface)}
	}
	surface := []rune(m.Surface)
	reading := []rune(ToHiragana(m.Reading))

	// Okurigana and leading kana stay outside the annotation.
	head := 0
	for head < len(surface) && head < len(reading) && isKana(surface[head]) && foldKana(surface[head]) == reading[head] {
		head++
	}
	tail := 0
	for tail < len(surface)-head && tail < len(reading)-head {
		s, r := surface[len(surface)-1-tail], reading[len(reading)-1-tail]
		if !isKana(s) || foldKana(s) != r {
			break
		}
		tail++
	}
	base := surface[head : len(surface)-tail]
	baseReading := reading[head : len(reading)-tail]
	if len(base) == 0 || len(baseReading) == 0 {
		return []lyrics.Element{lyrics.PlainElement(m.Surface)}
	}
	return []lyrics.Element{
		lyrics.PlainElement(string(surface[:head])),
		lyrics.AnnotationElement(string(base), string(baseReading)),
		lyrics.PlainElement(string(surface[len(surface)-tail:])),
	}
}

// ToHiragana converts katakana in s to hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = foldKana(r)
	}
	return string(runes)
}

func foldKana(r rune) rune {
	if r >= 'ァ' && r <= 'ヶ' {
		return r - ('ァ' - 'ぁ')
	}
	return r
}

func isKana(r rune) bool {
	return unicode.In(r, unicode.Hiragana, unicode.Katakana)
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
